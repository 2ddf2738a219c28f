package dto

// DailyTargetDTO 某天的全站目标
type DailyTargetDTO struct {
	Date    string `json:"date"`
	Target  int    `json:"target"`
	RestDay bool   `json:"rest_day"`
}

// TargetDataDTO 某天目标与当前用户完成数
type TargetDataDTO struct {
	Target  int `json:"target"`
	Current int `json:"current"`
}
