package model

// PushupEntry 俯卧撑流水，写入后不可变
// Date 为计入的目标日，补录时早于提交日；CreatedAt 为提交时间（毫秒）
type PushupEntry struct {
	ID         uint64 `gorm:"primaryKey" json:"id"`
	UserID     uint64 `gorm:"not null;index:idx_user_date,priority:1" json:"user_id"`
	Count      int    `gorm:"type:int;not null" json:"count"`
	Date       string `gorm:"type:char(10);not null;index:idx_user_date,priority:2;index:idx_date" json:"date"`
	CreatedAt  int64  `gorm:"not null;autoCreateTime:milli;index:idx_created_at" json:"created_at"`
	IsRecovery bool   `gorm:"type:tinyint(1);not null;default:0" json:"is_recovery"`
}

func (PushupEntry) TableName() string {
	return "pushup_entries"
}
