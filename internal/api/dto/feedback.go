package dto

// FeedbackBaseDTO 提交反馈
type FeedbackBaseDTO struct {
	Type    string `json:"type" binding:"required" validate:"oneof=feedback bug"`
	Message string `json:"message" binding:"required" validate:"min=1,max=2000"`
}

// FeedbackDTO 反馈
type FeedbackDTO struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	Message   string  `json:"message"`
	UserID    *uint64 `json:"user_id,omitempty"`
	Email     string  `json:"email,omitempty"`
	Name      string  `json:"name,omitempty"`
	CreatedAt string  `json:"created_at"`
}
