package dto

// LeaderboardRowDTO 排行榜一行
type LeaderboardRowDTO struct {
	Rank             int    `json:"rank"`
	UserID           uint64 `json:"user_id"`
	UserName         string `json:"user_name"`
	RecoveredPushups int    `json:"recovered_pushups"`
	OnTimePushups    int    `json:"on_time_pushups"`
	Total            int    `json:"total"`
}
