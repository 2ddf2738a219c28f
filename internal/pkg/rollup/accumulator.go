package rollup

import (
	"Purng/internal/model"
	"Purng/internal/pkg/target"
	"fmt"
	"sort"
)

type userYearKey struct {
	userID uint64
	year   int
}

// Accumulator 从流水全量累加出两张汇总表，每条流水只允许 Add 一次
type Accumulator struct {
	users     map[userYearKey]*model.UserYearStats
	community map[int]*model.YearCommunityStats
	processed int
}

func NewAccumulator() *Accumulator {
	return &Accumulator{
		users:     make(map[userYearKey]*model.UserYearStats),
		community: make(map[int]*model.YearCommunityStats),
	}
}

// Add 累加一条流水
func (a *Accumulator) Add(entry *model.PushupEntry) error {
	year, err := target.YearOf(entry.Date)
	if err != nil {
		return fmt.Errorf("entry %d: %w", entry.ID, err)
	}

	c, ok := a.community[year]
	if !ok {
		c = &model.YearCommunityStats{Year: year}
		a.community[year] = c
	}
	c.CommunityTotal += entry.Count

	key := userYearKey{userID: entry.UserID, year: year}
	u, ok := a.users[key]
	if !ok {
		u = &model.UserYearStats{UserID: entry.UserID, Year: year}
		a.users[key] = u
	}
	Apply(u, entry)

	a.processed++
	return nil
}

// Processed 已累加的流水条数
func (a *Accumulator) Processed() int {
	return a.processed
}

// UserYears 按 (year, user_id) 升序输出
func (a *Accumulator) UserYears() []*model.UserYearStats {
	list := make([]*model.UserYearStats, 0, len(a.users))
	for _, v := range a.users {
		list = append(list, v)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Year != list[j].Year {
			return list[i].Year < list[j].Year
		}
		return list[i].UserID < list[j].UserID
	})
	return list
}

// Years 按年份升序输出
func (a *Accumulator) Years() []*model.YearCommunityStats {
	list := make([]*model.YearCommunityStats, 0, len(a.community))
	for _, v := range a.community {
		list = append(list, v)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Year < list[j].Year
	})
	return list
}

// Apply 把一条流水计入用户年度汇总，按时/补录分开计
func Apply(stats *model.UserYearStats, entry *model.PushupEntry) {
	onTime, recovered := Split(entry)
	stats.MyTotal += entry.Count
	stats.OnTimePushups += onTime
	stats.RecoveredPushups += recovered
}

// Split 返回 (按时增量, 补录增量)
func Split(entry *model.PushupEntry) (int, int) {
	if entry.IsRecovery {
		return 0, entry.Count
	}
	return entry.Count, 0
}

// Equal 两份用户年度汇总的计数是否一致
func Equal(a, b *model.UserYearStats) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.MyTotal == b.MyTotal &&
		a.OnTimePushups == b.OnTimePushups &&
		a.RecoveredPushups == b.RecoveredPushups
}
