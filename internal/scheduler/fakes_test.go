package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aristath/aitrader/internal/domain"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// fakeEngine records jobs instead of scheduling them
type fakeEngine struct {
	mu      sync.Mutex
	nextID  cron.EntryID
	jobs    map[cron.EntryID]Job
	exprs   map[cron.EntryID]string
	added   int
	removed []cron.EntryID
	started bool
	stopped bool
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		jobs:  make(map[cron.EntryID]Job),
		exprs: make(map[cron.EntryID]string),
	}
}

func (e *fakeEngine) AddJob(schedule string, job Job) (cron.EntryID, error) {
	if _, err := Parser.Parse(schedule); err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	e.jobs[e.nextID] = job
	e.exprs[e.nextID] = schedule
	e.added++
	return e.nextID, nil
}

func (e *fakeEngine) RemoveJob(id cron.EntryID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.jobs, id)
	delete(e.exprs, id)
	e.removed = append(e.removed, id)
}

func (e *fakeEngine) Start() { e.mu.Lock(); e.started = true; e.mu.Unlock() }
func (e *fakeEngine) Stop()  { e.mu.Lock(); e.stopped = true; e.mu.Unlock() }

func (e *fakeEngine) jobFor(expr string) Job {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, s := range e.exprs {
		if s == expr {
			return e.jobs[id]
		}
	}
	return nil
}

func (e *fakeEngine) activeJobs() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.jobs)
}

// fakeTrades is an in-memory TradeStore
type fakeTrades struct {
	mu      sync.Mutex
	records map[string]domain.TradeRecord
}

func newFakeTrades(records ...domain.TradeRecord) *fakeTrades {
	s := &fakeTrades{records: make(map[string]domain.TradeRecord)}
	for _, r := range records {
		s.records[r.ID] = r
	}
	return s
}

func (s *fakeTrades) put(r domain.TradeRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[r.ID] = r
}

func (s *fakeTrades) GetAllTradeInfo(ctx context.Context) ([]domain.TradeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.TradeRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	return out, nil
}

func (s *fakeTrades) GetTradeByID(ctx context.Context, id string) (*domain.TradeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *fakeTrades) GetTradeByUserID(ctx context.Context, userID string) (*domain.TradeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.UserID == userID {
			r := r
			return &r, nil
		}
	}
	return nil, nil
}

// fakeUsers is an in-memory UserStore
type fakeUsers struct {
	users       map[string]domain.User
	channels    []string
	rankings    map[string][]domain.Ranking
	rankingErrs map[string]error
}

func newFakeUsers(users ...domain.User) *fakeUsers {
	s := &fakeUsers{
		users:       make(map[string]domain.User),
		rankings:    make(map[string][]domain.Ranking),
		rankingErrs: make(map[string]error),
	}
	for _, u := range users {
		s.users[u.UserID] = u
	}
	return s
}

func (s *fakeUsers) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *fakeUsers) GetTradeUserChannels(ctx context.Context) ([]string, error) {
	return s.channels, nil
}

func (s *fakeUsers) GetTradingList(ctx context.Context, channelID string) ([]domain.Ranking, error) {
	if err := s.rankingErrs[channelID]; err != nil {
		return nil, err
	}
	return s.rankings[channelID], nil
}

// fakeExecutor runs a per-trade function
type fakeExecutor struct {
	mu    sync.Mutex
	calls []string
	run   func(tradeID string) (*domain.TradeResult, error)
}

func (e *fakeExecutor) ExecuteTrading(ctx context.Context, tradeID string, isTest bool) (*domain.TradeResult, error) {
	e.mu.Lock()
	e.calls = append(e.calls, tradeID)
	e.mu.Unlock()
	if e.run == nil {
		return &domain.TradeResult{LastMessageContent: "done:" + tradeID}, nil
	}
	return e.run(tradeID)
}

func (e *fakeExecutor) called() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

type fakeReporter struct {
	err error
}

func (r fakeReporter) Report(ctx context.Context, snapshot domain.AccountSnapshot) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "\n[account]", nil
}

// fakeMessenger keeps channels, threads and messages in memory
type fakeMessenger struct {
	mu          sync.Mutex
	channels    map[string]*domain.Channel
	threads     map[string][]*domain.Channel // by parent channel id
	messages    map[string]*domain.Message
	sent        []*domain.Message
	created     int
	findDelay   time.Duration
	nextID      int
	sendErrFor  map[string]error
	fetchErrFor map[string]error
}

func newFakeMessenger(channels ...*domain.Channel) *fakeMessenger {
	m := &fakeMessenger{
		channels:    make(map[string]*domain.Channel),
		threads:     make(map[string][]*domain.Channel),
		messages:    make(map[string]*domain.Message),
		sendErrFor:  make(map[string]error),
		fetchErrFor: make(map[string]error),
	}
	for _, c := range channels {
		m.channels[c.ID] = c
	}
	return m
}

func textChannel(id string) *domain.Channel {
	return &domain.Channel{ID: id, GuildID: "guild", Type: domain.ChannelTypeText}
}

func (m *fakeMessenger) FetchChannel(ctx context.Context, channelID string) (*domain.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fetchErrFor[channelID]; err != nil {
		return nil, err
	}
	return m.channels[channelID], nil
}

func (m *fakeMessenger) FindActiveThread(ctx context.Context, channel *domain.Channel, nameContains string) (*domain.Channel, error) {
	if m.findDelay > 0 {
		time.Sleep(m.findDelay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.threads[channel.ID] {
		if strings.Contains(t.Name, nameContains) {
			return t, nil
		}
	}
	return nil, nil
}

func (m *fakeMessenger) CreateThread(ctx context.Context, channel *domain.Channel, name string) (*domain.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.created++
	thread := &domain.Channel{
		ID:       fmt.Sprintf("thread-%d", m.nextID),
		GuildID:  channel.GuildID,
		ParentID: channel.ID,
		Name:     name,
		Type:     domain.ChannelTypeThread,
	}
	m.threads[channel.ID] = append(m.threads[channel.ID], thread)
	return thread, nil
}

func (m *fakeMessenger) Send(ctx context.Context, channelID, content string) (*domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.sendErrFor[channelID]; err != nil {
		return nil, err
	}
	m.nextID++
	msg := &domain.Message{ID: fmt.Sprintf("msg-%d", m.nextID), ChannelID: channelID, Content: content}
	m.messages[msg.ID] = msg
	m.sent = append(m.sent, msg)
	return msg, nil
}

func (m *fakeMessenger) Edit(ctx context.Context, msg *domain.Message, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[msg.ID].Content = content
	return nil
}

func (m *fakeMessenger) threadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.created
}

// contents returns the final content of every sent message in send order
func (m *fakeMessenger) contents() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sent))
	for _, msg := range m.sent {
		out = append(out, msg.Content)
	}
	return out
}

type cronFixture struct {
	engine    *fakeEngine
	trades    *fakeTrades
	users     *fakeUsers
	executor  *fakeExecutor
	messenger *fakeMessenger
	cron      *TradingCron
}

var fixedNow = time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC) // 09:00 in Seoul

func newCronFixture(trades *fakeTrades, users *fakeUsers, messenger *fakeMessenger) *cronFixture {
	f := &cronFixture{
		engine:    newFakeEngine(),
		trades:    trades,
		users:     users,
		executor:  &fakeExecutor{},
		messenger: messenger,
	}
	seoul, _ := time.LoadLocation("Asia/Seoul")
	f.cron = NewTradingCron(TradingCronConfig{
		Engine:    f.engine,
		Trades:    trades,
		Executor:  f.executor,
		Users:     users,
		Reporter:  fakeReporter{},
		Messenger: messenger,
		Location:  seoul,
		Log:       zerolog.Nop(),
		Now:       func() time.Time { return fixedNow },
	})
	return f
}

// tick runs expr's job as the engine would
func (f *cronFixture) tick(expr string) {
	f.cron.runTick(expr)
}
