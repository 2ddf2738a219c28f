package service

import (
	"Purng/internal/api/dto"
	"Purng/internal/model"
	"Purng/internal/pkg/rollup"
	"Purng/internal/pkg/target"
	"Purng/internal/repository"
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// errFakeStats 非死锁的汇总写入失败，死锁会回滚整个事务并由仓储层重试
var errFakeStats = errors.New("Error 1264 (22003): Out of range value for column 'my_total' at row 1")

// fakeTargets 按日期返回固定目标，未配置的日期返回 def
type fakeTargets struct {
	byDate map[string]int
	def    int
}

func (f *fakeTargets) DailyTarget(date time.Time) int {
	if v, ok := f.byDate[target.FormatDate(date)]; ok {
		return v
	}
	return f.def
}

// memDB 内存版流水与汇总
type memDB struct {
	mu        sync.Mutex
	entries   []*model.PushupEntry
	users     map[repository.UserYear]*model.UserYearStats
	community map[int]*model.YearCommunityStats
	nextID    uint64
	baseMilli int64
	failStats bool
	// onRepairLocked 修复持锁期间调用，用来插入并发写
	onRepairLocked func()
}

func newMemDB() *memDB {
	return &memDB{
		users:     make(map[repository.UserYear]*model.UserYearStats),
		community: make(map[int]*model.YearCommunityStats),
		baseMilli: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC).UnixMilli(),
	}
}

// seed 直接写流水和汇总，模拟历史数据
func (m *memDB) seed(userID uint64, date string, count int, recovery bool) *model.PushupEntry {
	e := &model.PushupEntry{UserID: userID, Date: date, Count: count, IsRecovery: recovery}
	if err := m.CreateEntry(context.Background(), e); err != nil && !errors.Is(err, repository.ErrStatsNotApplied) {
		panic(err)
	}
	return e
}

func (m *memDB) CreateEntry(_ context.Context, entry *model.PushupEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	year, err := target.YearOf(entry.Date)
	if err != nil {
		return err
	}
	m.nextID++
	entry.ID = m.nextID
	if entry.CreatedAt == 0 {
		entry.CreatedAt = m.baseMilli + int64(m.nextID)
	}
	stored := *entry
	m.entries = append(m.entries, &stored)

	if m.failStats {
		return fmt.Errorf("%w: %v", repository.ErrStatsNotApplied, errFakeStats)
	}

	key := repository.UserYear{UserID: entry.UserID, Year: year}
	st, ok := m.users[key]
	if !ok {
		st = &model.UserYearStats{UserID: entry.UserID, Year: year}
		m.users[key] = st
	}
	rollup.Apply(st, entry)

	c, ok := m.community[year]
	if !ok {
		c = &model.YearCommunityStats{Year: year}
		m.community[year] = c
	}
	c.CommunityTotal += entry.Count
	return nil
}

func (m *memDB) SumUserDate(_ context.Context, userID uint64, date string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, e := range m.entries {
		if e.UserID == userID && e.Date == date {
			total += e.Count
		}
	}
	return total, nil
}

func (m *memDB) SumUserDateRange(_ context.Context, userID uint64, start, end string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := make(map[string]int)
	for _, e := range m.entries {
		if e.UserID == userID && e.Date >= start && e.Date <= end {
			res[e.Date] += e.Count
		}
	}
	return res, nil
}

func (m *memDB) SumUserRange(ctx context.Context, userID uint64, start, end string) (int, error) {
	days, _ := m.SumUserDateRange(ctx, userID, start, end)
	total := 0
	for _, v := range days {
		total += v
	}
	return total, nil
}

func (m *memDB) GetDateUserTotals(_ context.Context, date string) (map[uint64]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := make(map[uint64]int)
	for _, e := range m.entries {
		if e.Date == date {
			res[e.UserID] += e.Count
		}
	}
	return res, nil
}

func (m *memDB) GetEntriesBefore(_ context.Context, cursor int64, limit int) ([]*model.PushupEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := make([]*model.PushupEntry, 0)
	for _, e := range m.entries {
		if cursor == 0 || e.CreatedAt < cursor {
			c := *e
			list = append(list, &c)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt != list[j].CreatedAt {
			return list[i].CreatedAt > list[j].CreatedAt
		}
		return list[i].ID > list[j].ID
	})
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (m *memDB) GetEntriesByUserDates(_ context.Context, keys []repository.UserDate) ([]*model.PushupEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[repository.UserDate]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}
	list := make([]*model.PushupEntry, 0)
	for _, e := range m.entries {
		if want[repository.UserDate{UserID: e.UserID, Date: e.Date}] {
			c := *e
			list = append(list, &c)
		}
	}
	return list, nil
}

func (m *memDB) GetUserYearsSince(_ context.Context, createdAt int64) ([]repository.UserYear, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[repository.UserYear]bool)
	res := make([]repository.UserYear, 0)
	for _, e := range m.entries {
		if e.CreatedAt < createdAt {
			continue
		}
		year, _ := target.YearOf(e.Date)
		key := repository.UserYear{UserID: e.UserID, Year: year}
		if !seen[key] {
			seen[key] = true
			res = append(res, key)
		}
	}
	return res, nil
}

func (m *memDB) GetUserYearStats(_ context.Context, userID uint64, year int) (*model.UserYearStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.users[repository.UserYear{UserID: userID, Year: year}]
	if !ok {
		return nil, nil
	}
	c := *st
	return &c, nil
}

func (m *memDB) ListUserYearStats(_ context.Context, year int) ([]*model.UserYearStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := make([]*model.UserYearStats, 0)
	for k, st := range m.users {
		if k.Year == year {
			c := *st
			list = append(list, &c)
		}
	}
	return list, nil
}

func (m *memDB) GetYearCommunityStats(_ context.Context, year int) (*model.YearCommunityStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.community[year]
	if !ok {
		return nil, nil
	}
	cc := *c
	return &cc, nil
}

func (m *memDB) ComputeUserYearStats(_ context.Context, userID uint64, year int) (*model.UserYearStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.computeUserYear(userID, year), nil
}

func (m *memDB) computeUserYear(userID uint64, year int) *model.UserYearStats {
	st := &model.UserYearStats{UserID: userID, Year: year}
	for _, e := range m.entries {
		if y, _ := target.YearOf(e.Date); e.UserID == userID && y == year {
			rollup.Apply(st, e)
		}
	}
	return st
}

func (m *memDB) computeYearCommunity(year int) *model.YearCommunityStats {
	c := &model.YearCommunityStats{Year: year}
	for _, e := range m.entries {
		if y, _ := target.YearOf(e.Date); y == year {
			c.CommunityTotal += e.Count
		}
	}
	return c
}

func (m *memDB) ComputeYearUserStats(_ context.Context, year int) ([]*model.UserYearStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc := rollup.NewAccumulator()
	for _, e := range m.entries {
		if y, _ := target.YearOf(e.Date); y == year {
			_ = acc.Add(e)
		}
	}
	return acc.UserYears(), nil
}

func (m *memDB) ComputeYearCommunityStats(_ context.Context, year int) (*model.YearCommunityStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.computeYearCommunity(year), nil
}

// RepairUserYearStats 整个比较与覆盖都在 mu 内完成，并发写只能排在修复之后
func (m *memDB) RepairUserYearStats(_ context.Context, userID uint64, year int) (*repository.UserYearRepair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := repository.UserYear{UserID: userID, Year: year}
	stored := &model.UserYearStats{UserID: userID, Year: year}
	if st, ok := m.users[key]; ok {
		c := *st
		stored = &c
	}
	if m.onRepairLocked != nil {
		m.onRepairLocked()
	}
	expected := m.computeUserYear(userID, year)
	res := &repository.UserYearRepair{Stored: stored, Expected: expected}
	if rollup.Equal(stored, expected) {
		return res, nil
	}
	c := *expected
	m.users[key] = &c
	res.Repaired = true
	return res, nil
}

func (m *memDB) RepairYearCommunityStats(_ context.Context, year int) (*repository.YearRepair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := &model.YearCommunityStats{Year: year}
	if c, ok := m.community[year]; ok {
		cc := *c
		stored = &cc
	}
	if m.onRepairLocked != nil {
		m.onRepairLocked()
	}
	expected := m.computeYearCommunity(year)
	res := &repository.YearRepair{Stored: stored, Expected: expected}
	if stored.CommunityTotal == expected.CommunityTotal {
		return res, nil
	}
	c := *expected
	m.community[year] = &c
	res.Repaired = true
	return res, nil
}

func (m *memDB) SaveUserYearStats(_ context.Context, stats *model.UserYearStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *stats
	m.users[repository.UserYear{UserID: stats.UserID, Year: stats.Year}] = &c
	return nil
}

func (m *memDB) SaveYearCommunityStats(_ context.Context, stats *model.YearCommunityStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *stats
	m.community[stats.Year] = &c
	return nil
}

func (m *memDB) RebuildStats(_ context.Context, _ int) (*repository.RebuildResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc := rollup.NewAccumulator()
	for _, e := range m.entries {
		if err := acc.Add(e); err != nil {
			return nil, err
		}
	}
	m.users = make(map[repository.UserYear]*model.UserYearStats)
	m.community = make(map[int]*model.YearCommunityStats)
	for _, st := range acc.UserYears() {
		m.users[repository.UserYear{UserID: st.UserID, Year: st.Year}] = st
	}
	for _, c := range acc.Years() {
		m.community[c.Year] = c
	}
	return &repository.RebuildResult{
		EntriesProcessed: acc.Processed(),
		YearsUpdated:     len(acc.Years()),
		UserYearsUpdated: len(acc.UserYears()),
	}, nil
}

// fakeUserRepo 内存用户表
type fakeUserRepo struct {
	users map[uint64]*model.User
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uint64]*model.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) GetUserById(_ context.Context, id uint64) (*model.User, error) {
	return r.users[id], nil
}

func (r *fakeUserRepo) GetUserByIds(_ context.Context, ids []uint64) ([]*model.User, error) {
	res := make([]*model.User, 0)
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			res = append(res, u)
		}
	}
	return res, nil
}

func (r *fakeUserRepo) GetReminderUsers(_ context.Context) ([]*model.User, error) {
	res := make([]*model.User, 0)
	for _, u := range r.users {
		if u.ReminderEnabled {
			res = append(res, u)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

// fakeStore 内存版 redis.Store，锁是阻塞的
type fakeStore struct {
	mu        sync.Mutex
	locks     map[string]*sync.Mutex
	kv        map[string]string
	sets      map[string]map[string]bool
	published [][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		locks: make(map[string]*sync.Mutex),
		kv:    make(map[string]string),
		sets:  make(map[string]map[string]bool),
	}
}

func (f *fakeStore) TryLock(_ context.Context, key, _ string, _ time.Duration, _ int) (bool, error) {
	f.mu.Lock()
	l, ok := f.locks[key]
	if !ok {
		l = &sync.Mutex{}
		f.locks[key] = l
	}
	f.mu.Unlock()
	l.Lock()
	return true, nil
}

func (f *fakeStore) UnLock(_ context.Context, key, _ string) {
	f.mu.Lock()
	l := f.locks[key]
	f.mu.Unlock()
	l.Unlock()
}

func (f *fakeStore) GetValue(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.kv[key], nil
}

func (f *fakeStore) SetWithExpiration(_ context.Context, key string, value interface{}, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.kv[key] = string(v)
	default:
		f.kv[key] = fmt.Sprint(v)
	}
	return nil
}

func (f *fakeStore) DeleteKey(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.kv, key)
	delete(f.sets, key)
	return nil
}

func (f *fakeStore) Incr(_ context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, _ := strconv.ParseInt(f.kv[key], 10, 64)
	n++
	f.kv[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func (f *fakeStore) SAdd(_ context.Context, key string, members ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	set, ok := f.sets[key]
	if !ok {
		set = make(map[string]bool)
		f.sets[key] = set
	}
	for _, m := range members {
		set[m] = true
	}
	return nil
}

func (f *fakeStore) GetSet(_ context.Context, key string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res := make([]string, 0)
	for m := range f.sets[key] {
		res = append(res, m)
	}
	sort.Strings(res)
	return res, nil
}

func (f *fakeStore) Rename(_ context.Context, oldKey, newKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	set, ok := f.sets[oldKey]
	if !ok {
		return errors.New("ERR no such key")
	}
	f.sets[newKey] = set
	delete(f.sets, oldKey)
	return nil
}

func (f *fakeStore) Publish(_ context.Context, channel string, message interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := message.([]byte); ok {
		f.published = append(f.published, b)
	}
	return nil
}

func (f *fakeStore) members(key string) []string {
	res, _ := f.GetSet(context.Background(), key)
	return res
}

// fakeAlerter 记录告警
type fakeAlerter struct {
	mu     sync.Mutex
	alerts []string
}

func (a *fakeAlerter) Alert(_ context.Context, title string, content string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alerts = append(a.alerts, title+": "+content)
	return nil
}

func (a *fakeAlerter) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.alerts)
}

// fakePublisher 记录提醒，failFor 中的用户投递失败
type fakePublisher struct {
	sent    []*dto.ReminderMessage
	failFor map[uint64]bool
}

func (p *fakePublisher) PublishReminder(_ context.Context, msg *dto.ReminderMessage) error {
	if p.failFor[msg.UserID] {
		return errors.New("broker unavailable")
	}
	p.sent = append(p.sent, msg)
	return nil
}

func strPtr(s string) *string {
	return &s
}

func fixedClock(date string, hour int) func() time.Time {
	d, err := target.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return func() time.Time {
		return d.Add(time.Duration(hour) * time.Hour)
	}
}

func errContains(err error, sub string) bool {
	return err != nil && strings.Contains(err.Error(), sub)
}
