package model

import (
	"time"
)

// User 身份服务维护的用户表，这里只读展示名与提醒开关
type User struct {
	ID              uint64  `gorm:"primaryKey"`
	Email           string  `gorm:"type:varchar(255);uniqueIndex:idx_email"`
	Name            *string `gorm:"type:varchar(100)"`
	ReminderEnabled bool    `gorm:"type:tinyint(1);not null;default:0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (User) TableName() string {
	return "users"
}
