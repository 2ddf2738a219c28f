package dto

// StatsDTO 统计面板
type StatsDTO struct {
	DayNumber       int `json:"day_number"`
	Year            int `json:"year"`
	MyTotal         int `json:"my_total"`
	CommunityTotal  int `json:"community_total"`
	CompletionCount int `json:"completion_count"`
	MissedPushups   int `json:"missed_pushups"`
	Target          int `json:"target"`
}

// StatsDiffDTO 单个用户年度汇总与流水重算的差异
type StatsDiffDTO struct {
	UserID            uint64 `json:"user_id"`
	Year              int    `json:"year"`
	StoredTotal       int    `json:"stored_total"`
	StoredOnTime      int    `json:"stored_on_time"`
	StoredRecovered   int    `json:"stored_recovered"`
	ExpectedTotal     int    `json:"expected_total"`
	ExpectedOnTime    int    `json:"expected_on_time"`
	ExpectedRecovered int    `json:"expected_recovered"`
}

// StatsAuditDTO 年度汇总审计报告
type StatsAuditDTO struct {
	Year                   int             `json:"year"`
	Consistent             bool            `json:"consistent"`
	StoredCommunityTotal   int             `json:"stored_community_total"`
	ExpectedCommunityTotal int             `json:"expected_community_total"`
	Users                  []*StatsDiffDTO `json:"users"`
}
