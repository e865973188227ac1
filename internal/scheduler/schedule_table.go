package scheduler

import (
	"fmt"
	"sort"
	"sync"

	"github.com/robfig/cron/v3"
)

// GroupInfo is a copy of one schedule group
type GroupInfo struct {
	Expression string       `json:"expression"`
	TradeIDs   []string     `json:"trade_ids"`
	EntryID    cron.EntryID `json:"entry_id"`
}

type scheduleGroup struct {
	tradeIDs []string
	entryID  cron.EntryID
}

// ScheduleTable maps schedule expressions to the trades sharing them.
// A group exists iff it has at least one trade id and exactly then has a
// running job. Expressions are compared as literal strings.
type ScheduleTable struct {
	mu     sync.Mutex
	groups map[string]*scheduleGroup
	engine JobEngine
	newJob func(expr string) Job
}

// NewScheduleTable creates an empty table. newJob builds the periodic job
// started when a group is created.
func NewScheduleTable(engine JobEngine, newJob func(expr string) Job) *ScheduleTable {
	return &ScheduleTable{
		groups: make(map[string]*scheduleGroup),
		engine: engine,
		newJob: newJob,
	}
}

// Add registers tradeID under expr, starting the group's job if the group is new.
// Adding an id already present is a no-op.
func (t *ScheduleTable) Add(tradeID, expr string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	group, ok := t.groups[expr]
	if !ok {
		id, err := t.engine.AddJob(expr, t.newJob(expr))
		if err != nil {
			return fmt.Errorf("failed to start schedule %q: %w", expr, err)
		}
		group = &scheduleGroup{entryID: id}
		t.groups[expr] = group
	}

	for _, existing := range group.tradeIDs {
		if existing == tradeID {
			return nil
		}
	}
	group.tradeIDs = append(group.tradeIDs, tradeID)
	return nil
}

// Remove drops tradeID from expr's group. The job is stopped and the group
// deleted when it empties. Unknown expressions are ignored.
func (t *ScheduleTable) Remove(tradeID, expr string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	group, ok := t.groups[expr]
	if !ok {
		return
	}

	kept := group.tradeIDs[:0]
	for _, id := range group.tradeIDs {
		if id != tradeID {
			kept = append(kept, id)
		}
	}
	group.tradeIDs = kept

	if len(group.tradeIDs) == 0 {
		t.engine.RemoveJob(group.entryID)
		delete(t.groups, expr)
	}
}

// Get returns a copy of expr's group
func (t *ScheduleTable) Get(expr string) (GroupInfo, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	group, ok := t.groups[expr]
	if !ok {
		return GroupInfo{}, false
	}
	return group.info(expr), true
}

// Snapshot returns a copy of expr's trade ids for one tick
func (t *ScheduleTable) Snapshot(expr string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	group, ok := t.groups[expr]
	if !ok {
		return nil
	}
	return append([]string(nil), group.tradeIDs...)
}

// Groups returns copies of every group ordered by expression
func (t *ScheduleTable) Groups() []GroupInfo {
	t.mu.Lock()
	defer t.mu.Unlock()

	infos := make([]GroupInfo, 0, len(t.groups))
	for expr, group := range t.groups {
		infos = append(infos, group.info(expr))
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Expression < infos[j].Expression
	})
	return infos
}

// Len returns the number of groups and the total number of trade ids
func (t *ScheduleTable) Len() (groups, trades int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, group := range t.groups {
		trades += len(group.tradeIDs)
	}
	return len(t.groups), trades
}

func (g *scheduleGroup) info(expr string) GroupInfo {
	return GroupInfo{
		Expression: expr,
		TradeIDs:   append([]string(nil), g.tradeIDs...),
		EntryID:    g.entryID,
	}
}
