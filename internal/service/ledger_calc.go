package service

import (
	"Purng/internal/api/dto"
	"Purng/internal/model"
	"Purng/internal/pkg/target"
	"Purng/internal/repository"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jinzhu/copier"
)

// runningTotals 计算每条流水在其 (用户, 日期) 内按提交顺序累计到自身的合计
func runningTotals(entries []*model.PushupEntry) map[uint64]int {
	sorted := make([]*model.PushupEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt != sorted[j].CreatedAt {
			return sorted[i].CreatedAt < sorted[j].CreatedAt
		}
		return sorted[i].ID < sorted[j].ID
	})

	sums := make(map[repository.UserDate]int)
	res := make(map[uint64]int, len(sorted))
	for _, e := range sorted {
		key := repository.UserDate{UserID: e.UserID, Date: e.Date}
		sums[key] += e.Count
		res[e.ID] = sums[key]
	}
	return res
}

// classifyEntry 补做优先；否则恰好跨过目标线的那一条为 completed
func classifyEntry(entry *model.PushupEntry, runningTotal, dayTarget int) string {
	if entry.IsRecovery {
		return dto.ActivityTypeRecovery
	}
	priorTotal := runningTotal - entry.Count
	if dayTarget > 0 && priorTotal < dayTarget && runningTotal >= dayTarget {
		return dto.ActivityTypeCompleted
	}
	return dto.ActivityTypeRegular
}

// missedDays 遍历 [当年 1 月 1 日, today) ，跳过休息日，只输出仍有欠账的日子
func missedDays(src target.Source, totals map[string]int, today time.Time) []*dto.MissedDayDTO {
	res := make([]*dto.MissedDayDTO, 0)
	for day := target.YearStart(today.Year()); day.Before(today); day = day.AddDate(0, 0, 1) {
		dayTarget := src.DailyTarget(day)
		if dayTarget == 0 {
			continue
		}
		date := target.FormatDate(day)
		completed := totals[date]
		if missed := dayTarget - completed; missed > 0 {
			res = append(res, &dto.MissedDayDTO{
				Date:      date,
				Target:    dayTarget,
				Completed: completed,
				Missed:    missed,
			})
		}
	}
	return res
}

// findMissedDay 在错过列表中查找某天
func findMissedDay(days []*dto.MissedDayDTO, date string) *dto.MissedDayDTO {
	for _, d := range days {
		if d.Date == date {
			return d
		}
	}
	return nil
}

// yearDays 生成全年日历，状态优先级 today > future > rest > completed > missed
func yearDays(src target.Source, totals map[string]int, today time.Time) []*dto.YearDayDTO {
	start := target.YearStart(today.Year())
	end := start.AddDate(1, 0, 0)
	res := make([]*dto.YearDayDTO, 0, target.DaysInYear(today.Year()))
	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		dayTarget := src.DailyTarget(day)
		date := target.FormatDate(day)
		completed := totals[date]

		var status string
		switch {
		case day.Equal(today):
			status = dto.DayStatusToday
		case day.After(today):
			status = dto.DayStatusFuture
		case dayTarget == 0:
			status = dto.DayStatusRest
		case completed >= dayTarget:
			status = dto.DayStatusCompleted
		default:
			status = dto.DayStatusMissed
		}

		res = append(res, &dto.YearDayDTO{
			Date:       date,
			DayOfMonth: day.Day(),
			Month:      int(day.Month()) - 1,
			Status:     status,
			Target:     dayTarget,
			Completed:  completed,
		})
	}
	return res
}

// rankStats 按总数降序、按时完成数降序、用户 ID 升序排名，名次即位置
func rankStats(stats []*model.UserYearStats, names map[uint64]*string) ([]*dto.LeaderboardRowDTO, error) {
	sorted := make([]*model.UserYearStats, len(stats))
	copy(sorted, stats)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.MyTotal != b.MyTotal {
			return a.MyTotal > b.MyTotal
		}
		if a.OnTimePushups != b.OnTimePushups {
			return a.OnTimePushups > b.OnTimePushups
		}
		return a.UserID < b.UserID
	})

	rows := make([]*dto.LeaderboardRowDTO, 0, len(sorted))
	for i, st := range sorted {
		row := &dto.LeaderboardRowDTO{}
		if err := copier.Copy(row, st); err != nil {
			return nil, fmt.Errorf("copy leaderboard row for user %d: %w", st.UserID, err)
		}
		row.Rank = i + 1
		row.Total = st.MyTotal
		row.UserName = formatUserName(names[st.UserID])
		rows = append(rows, row)
	}
	return rows, nil
}

// formatUserName 多个词时显示为 "名 姓首字母."
func formatUserName(name *string) string {
	if name == nil {
		return "Anonymous"
	}
	parts := strings.Fields(*name)
	if len(parts) == 0 {
		return "Anonymous"
	}
	if len(parts) == 1 {
		return parts[0]
	}
	last := parts[len(parts)-1]
	initial, _ := utf8.DecodeRuneInString(last)
	return parts[0] + " " + string(initial) + "."
}

// userNames 用户 ID -> 显示名原值
func userNames(users []*model.User) map[uint64]*string {
	res := make(map[uint64]*string, len(users))
	for _, u := range users {
		res[u.ID] = u.Name
	}
	return res
}
