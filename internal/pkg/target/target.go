package target

import (
	"math"
	"time"
	"unicode/utf16"
)

const (
	// DefaultSecret 未配置种子时的兜底值
	DefaultSecret = "default-secret"

	restDayPrefix     = "rest-"
	maxRestDayPercent = 0.20
)

// Source 按日期给出当天目标
type Source interface {
	DailyTarget(date time.Time) int
}

// Generator 每日目标生成器
// 结果只取决于日期与 secret，所有用户、所有进程看到的目标一致
type Generator struct {
	secret string
}

func NewGenerator(secret string) *Generator {
	if secret == "" {
		secret = DefaultSecret
	}
	return &Generator{secret: secret}
}

// DailyTarget 当天目标俯卧撑数，休息日返回 0，其余在 [0, dayOfYear] 之间
func (g *Generator) DailyTarget(date time.Time) int {
	if g.IsRestDay(date) {
		return 0
	}
	r := seededRandom(FormatDate(date) + g.secret)
	return int(math.Floor(r * float64(DayOfYear(date)+1)))
}

// IsRestDay 休息日判定，概率随一年进度从 0% 线性升到 20%
func (g *Generator) IsRestDay(date time.Time) bool {
	r := seededRandom(restDayPrefix + FormatDate(date) + g.secret)
	return r < RestDayProbability(date)
}

// RestDayProbability 指定日期成为休息日的概率
func RestDayProbability(date time.Time) float64 {
	return float64(DayOfYear(date)) / float64(DaysInYear(date.Year())) * maxRestDayPercent
}

// seededRandom sin(seed)*10000 取小数部分，seed 为种子串 UTF-16 码元之和
func seededRandom(seedString string) float64 {
	var seed int64
	for _, c := range utf16.Encode([]rune(seedString)) {
		seed += int64(c)
	}
	x := math.Sin(float64(seed)) * 10000
	return x - math.Floor(x)
}
