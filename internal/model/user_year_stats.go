package model

import "time"

// UserYearStats 用户年度汇总，MyTotal = OnTimePushups + RecoveredPushups
type UserYearStats struct {
	ID               uint64 `gorm:"primaryKey"`
	UserID           uint64 `gorm:"not null;uniqueIndex:idx_user_year,priority:1"`
	Year             int    `gorm:"not null;uniqueIndex:idx_user_year,priority:2;index:idx_year"`
	MyTotal          int    `gorm:"type:int;not null;default:0"`
	OnTimePushups    int    `gorm:"type:int;not null;default:0"`
	RecoveredPushups int    `gorm:"type:int;not null;default:0"`
	UpdatedAt        time.Time
}

func (UserYearStats) TableName() string {
	return "user_yearly_stats"
}

// YearCommunityStats 社区年度汇总
type YearCommunityStats struct {
	ID             uint64 `gorm:"primaryKey"`
	Year           int    `gorm:"not null;uniqueIndex:idx_year"`
	CommunityTotal int    `gorm:"type:int;not null;default:0"`
	UpdatedAt      time.Time
}

func (YearCommunityStats) TableName() string {
	return "yearly_community_stats"
}
