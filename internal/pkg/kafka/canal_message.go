package kafka

import (
	"fmt"
	"strconv"
)

// canal 事件类型
const (
	INSERT = "INSERT"
	UPDATE = "UPDATE"
	DELETE = "DELETE"
)

// CanalMessage 定义了 Canal 推送到 Kafka 的 JSON 数据结构
type CanalMessage struct {
	ID       int64    `json:"id"`
	Database string   `json:"database"`
	Table    string   `json:"table"`
	PKNames  []string `json:"pkNames"`
	IsDDL    bool     `json:"isDdl"`
	Type     string   `json:"type"`
	ES       int64    `json:"es"`
	TS       int64    `json:"ts"`

	// Data 存储变更后的数据，canal 把所有列都序列化成字符串
	Data []map[string]any `json:"data"`

	// Old 存储变更前的数据
	Old []map[string]any `json:"old"`
}

// rowString 取出一列的字符串值
func rowString(row map[string]any, column string) (string, error) {
	v, ok := row[column]
	if !ok || v == nil {
		return "", fmt.Errorf("column %s missing", column)
	}
	switch val := v.(type) {
	case string:
		return val, nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	default:
		return fmt.Sprint(val), nil
	}
}

func rowUint64(row map[string]any, column string) (uint64, error) {
	s, err := rowString(row, column)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", column, err)
	}
	return n, nil
}
