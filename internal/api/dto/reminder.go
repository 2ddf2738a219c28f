package dto

// ReminderMessage 推送给通知服务的提醒
type ReminderMessage struct {
	UserID uint64 `json:"user_id"`
	Email  string `json:"email"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	URL    string `json:"url"`
}
