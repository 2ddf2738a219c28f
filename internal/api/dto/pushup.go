package dto

// AddPushupsDTO 记录俯卧撑
type AddPushupsDTO struct {
	Date  string `json:"date" binding:"required" validate:"datetime=2006-01-02"`
	Count int    `json:"count"`
}

// AddPushupsResultDTO 记录结果
type AddPushupsResultDTO struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Total   int    `json:"total"`
}

// RecoverPushupsDTO 补做某个错过的日子
type RecoverPushupsDTO struct {
	TargetDate string `json:"target_date" binding:"required" validate:"datetime=2006-01-02"`
	Count      int    `json:"count"`
}

// RecoverResultDTO 补做结果
type RecoverResultDTO struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// MissedDayDTO 错过的一天
type MissedDayDTO struct {
	Date      string `json:"date"`
	Target    int    `json:"target"`
	Completed int    `json:"completed"`
	Missed    int    `json:"missed"`
}

const (
	DayStatusFuture    = "future"
	DayStatusToday     = "today"
	DayStatusCompleted = "completed"
	DayStatusMissed    = "missed"
	DayStatusRest      = "rest"
)

// YearDayDTO 年历中的一天，month 从 0 开始
type YearDayDTO struct {
	Date       string `json:"date"`
	DayOfMonth int    `json:"day_of_month"`
	Month      int    `json:"month"`
	Status     string `json:"status"`
	Target     int    `json:"target"`
	Completed  int    `json:"completed"`
}
