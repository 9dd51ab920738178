// Package store provides scan.Store implementations: a PostgreSQL store for
// the server and an in-memory store for tests.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/RimaChaieb/tuniguard-api/internal/catalog"
	"github.com/RimaChaieb/tuniguard-api/internal/intel"
	"github.com/RimaChaieb/tuniguard-api/internal/scan"
	"github.com/RimaChaieb/tuniguard-api/internal/users"
)

// Memory is an in-memory, thread-safe scan.Store. Transactions are
// serialized and staged on a copy of the state that replaces it only on
// commit.
type Memory struct {
	mu    sync.Mutex
	state *memState

	// injected failures, consumed by the next transactions
	conflicts int
	failOn    string
	failErr   error
}

type memState struct {
	users       map[int64]users.User
	entries     []catalog.Entry
	scans       []scan.Scan
	intel       []intel.Record
	nextUserID  int64
	nextScanID  int64
	nextIntelID int64
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{state: &memState{
		users:       make(map[int64]users.User),
		nextUserID:  1,
		nextScanID:  1,
		nextIntelID: 1,
	}}
}

// AddUser stores u, assigning an ID when zero.
func (m *Memory) AddUser(u users.User) users.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == 0 {
		u.ID = m.state.nextUserID
	}
	if u.ID >= m.state.nextUserID {
		m.state.nextUserID = u.ID + 1
	}
	m.state.users[u.ID] = u
	return u
}

// AddEntries appends catalog entries, assigning IDs in order.
func (m *Memory) AddEntries(entries ...catalog.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		e.ID = int64(len(m.state.entries) + 1)
		m.state.entries = append(m.state.entries, e)
	}
}

// AddIntel stores a record as if committed earlier.
func (m *Memory) AddIntel(r intel.Record) intel.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = m.state.nextIntelID
	m.state.nextIntelID++
	m.state.intel = append(m.state.intel, r)
	return r
}

// InjectConflicts makes the next n InsertIntel calls return scan.ErrConflict.
func (m *Memory) InjectConflicts(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conflicts = n
}

// InjectFailure makes the next call to the named Tx method return err.
func (m *Memory) InjectFailure(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOn, m.failErr = method, err
}

// User returns a committed user.
func (m *Memory) User(id int64) (users.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.state.users[id]
	return u, ok
}

// Entries returns the committed catalog.
func (m *Memory) Entries() []catalog.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]catalog.Entry(nil), m.state.entries...)
}

// Scans returns every committed scan in insertion order.
func (m *Memory) Scans() []scan.Scan {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]scan.Scan(nil), m.state.scans...)
}

// Intel returns every committed intel record.
func (m *Memory) Intel() []intel.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]intel.Record, len(m.state.intel))
	for i, r := range m.state.intel {
		r.AffectedCarriers = append(intel.Carriers(nil), r.AffectedCarriers...)
		out[i] = r
	}
	return out
}

// GetUser implements scan.Store.
func (m *Memory) GetUser(_ context.Context, id int64) (*users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.state.users[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	return &u, nil
}

// WithinTx implements scan.Store.
func (m *Memory) WithinTx(ctx context.Context, fn func(ctx context.Context, tx scan.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &memTx{m: m, st: m.state.clone()}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	m.state = tx.st
	return nil
}

// GetScan implements scan.Store.
func (m *Memory) GetScan(_ context.Context, id int64) (*scan.Scan, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.state.scans {
		if s.ID != id {
			continue
		}
		threatType := ""
		if s.ThreatID != nil {
			for _, e := range m.state.entries {
				if e.ID == *s.ThreatID {
					threatType = e.Type
				}
			}
		}
		return &s, threatType, nil
	}
	return nil, "", scan.ErrNotFound
}

// SetUserAction implements scan.Store.
func (m *Memory) SetUserAction(_ context.Context, id int64, action scan.Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.state.scans {
		if m.state.scans[i].ID == id {
			a := action
			m.state.scans[i].UserAction = &a
			return nil
		}
	}
	return scan.ErrNotFound
}

func (s *memState) clone() *memState {
	c := &memState{
		users:       make(map[int64]users.User, len(s.users)),
		entries:     append([]catalog.Entry(nil), s.entries...),
		scans:       append([]scan.Scan(nil), s.scans...),
		intel:       make([]intel.Record, len(s.intel)),
		nextUserID:  s.nextUserID,
		nextScanID:  s.nextScanID,
		nextIntelID: s.nextIntelID,
	}
	for id, u := range s.users {
		c.users[id] = u
	}
	for i, r := range s.intel {
		r.AffectedCarriers = append(intel.Carriers(nil), r.AffectedCarriers...)
		c.intel[i] = r
	}
	return c
}

// memTx operates on a staged copy of the state. The owning Memory's mutex
// is held for its whole life.
type memTx struct {
	m  *Memory
	st *memState
}

func (t *memTx) fail(method string) error {
	if t.m.failOn == method {
		err := t.m.failErr
		t.m.failOn, t.m.failErr = "", nil
		return err
	}
	return nil
}

func (t *memTx) LockUser(_ context.Context, id int64) (*users.User, error) {
	if err := t.fail("LockUser"); err != nil {
		return nil, err
	}
	u, ok := t.st.users[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	return &u, nil
}

func (t *memTx) Catalog(_ context.Context) ([]catalog.Entry, error) {
	if err := t.fail("Catalog"); err != nil {
		return nil, err
	}
	return append([]catalog.Entry(nil), t.st.entries...), nil
}

func (t *memTx) IncrementDetection(_ context.Context, threatID int64) error {
	if err := t.fail("IncrementDetection"); err != nil {
		return err
	}
	for i := range t.st.entries {
		if t.st.entries[i].ID == threatID {
			t.st.entries[i].DetectionCount++
			return nil
		}
	}
	return catalog.ErrNotFound
}

func (t *memTx) InsertScan(_ context.Context, s *scan.Scan) error {
	if err := t.fail("InsertScan"); err != nil {
		return err
	}
	s.ID = t.st.nextScanID
	t.st.nextScanID++
	t.st.scans = append(t.st.scans, *s)
	return nil
}

func (t *memTx) LockIntel(_ context.Context, key intel.Key) (*intel.Record, error) {
	if err := t.fail("LockIntel"); err != nil {
		return nil, err
	}
	for _, r := range t.st.intel {
		if r.Key() == key {
			r.AffectedCarriers = append(intel.Carriers(nil), r.AffectedCarriers...)
			return &r, nil
		}
	}
	return nil, intel.ErrNotFound
}

func (t *memTx) InsertIntel(_ context.Context, r *intel.Record) error {
	if t.m.conflicts > 0 {
		t.m.conflicts--
		return scan.ErrConflict
	}
	if err := t.fail("InsertIntel"); err != nil {
		return err
	}
	for _, existing := range t.st.intel {
		if existing.Key() == r.Key() {
			return scan.ErrConflict
		}
	}
	r.ID = t.st.nextIntelID
	t.st.nextIntelID++
	t.st.intel = append(t.st.intel, *r)
	return nil
}

func (t *memTx) UpdateIntel(_ context.Context, r *intel.Record) error {
	if err := t.fail("UpdateIntel"); err != nil {
		return err
	}
	for i := range t.st.intel {
		if t.st.intel[i].ID == r.ID {
			t.st.intel[i] = *r
			return nil
		}
	}
	return intel.ErrNotFound
}

func (t *memTx) RecentScores(_ context.Context, userID int64, limit int) ([]float64, error) {
	if err := t.fail("RecentScores"); err != nil {
		return nil, err
	}
	var mine []scan.Scan
	for _, s := range t.st.scans {
		if s.UserID == userID {
			mine = append(mine, s)
		}
	}
	sort.SliceStable(mine, func(i, j int) bool {
		if !mine[i].Timestamp.Equal(mine[j].Timestamp) {
			return mine[i].Timestamp.After(mine[j].Timestamp)
		}
		return mine[i].ID > mine[j].ID
	})
	if len(mine) > limit {
		mine = mine[:limit]
	}
	out := make([]float64, len(mine))
	for i, s := range mine {
		out[i] = s.DetectionScore
	}
	return out, nil
}

func (t *memTx) UpdateUserStats(_ context.Context, userID int64, scanCount int, lastScan time.Time, riskScore float64) error {
	if err := t.fail("UpdateUserStats"); err != nil {
		return err
	}
	u, ok := t.st.users[userID]
	if !ok {
		return users.ErrNotFound
	}
	ls := lastScan
	u.ScanCount = scanCount
	u.LastScan = &ls
	u.RiskScore = riskScore
	t.st.users[userID] = u
	return nil
}
