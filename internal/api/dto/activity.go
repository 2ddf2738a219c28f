package dto

const (
	ActivityTypeRegular   = "regular"
	ActivityTypeRecovery  = "recovery"
	ActivityTypeCompleted = "completed"
)

// ActivityEntryDTO 动态流中的一条记录
type ActivityEntryDTO struct {
	ID        uint64 `json:"id"`
	UserName  string `json:"user_name"`
	Count     int    `json:"count"`
	Date      string `json:"date"`
	CreatedAt int64  `json:"created_at"`
	Type      string `json:"type"`
	Target    int    `json:"target"`
}

// ActivityFeedDTO 动态流分页，next_cursor 为 null 表示没有更多
type ActivityFeedDTO struct {
	Entries    []*ActivityEntryDTO `json:"entries"`
	NextCursor *int64              `json:"next_cursor"`
}
