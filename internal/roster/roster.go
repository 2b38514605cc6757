// Package roster owns the user's team: an ordered, duplicate-free list of at
// most six display names, written through to a key/value store on every
// mutation.
//
// A Manager must be loaded before it accepts mutations. Each mutation holds
// the manager lock across the in-memory change and its persistence write, so
// concurrent callers (TUI commands, HTTP handlers) observe operations in a
// single order and never see a value whose write is still in flight. A failed
// write does not roll the in-memory change back; the operation reports a
// *PersistError instead.
package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jask/pokedex/internal/catalog"
)

// Capacity is the maximum team size.
const Capacity = 6

// Manager is the only owner of team state.
type Manager struct {
	store  Store
	logger *zap.Logger
	intn   func(n int) int

	mu     sync.Mutex
	names  []string
	loaded bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for write-through warnings and summaries.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithRand makes GenerateRandom draw from r.
func WithRand(r *rand.Rand) Option {
	return func(m *Manager) {
		if r != nil {
			m.intn = r.IntN
		}
	}
}

// New returns an unloaded manager backed by store.
func New(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		logger: zap.NewNop(),
		intn:   rand.IntN,
		names:  []string{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load replaces the in-memory team with the stored one. A missing value
// yields an empty team. A stored value that does not decode to a valid team
// resets the team to empty and returns ErrCorruptState; the manager is
// loaded either way. A read failure leaves the manager unloaded.
func (m *Manager) Load(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok, err := m.store.Get(ctx, StorageKey)
	if err != nil {
		return nil, fmt.Errorf("roster: load: %w", err)
	}
	m.loaded = true
	m.names = []string{}
	if !ok {
		m.logSummary()
		return m.snapshot(), nil
	}

	names, err := decode(raw)
	if err != nil {
		m.logger.Warn("stored team is corrupt, starting empty", zap.Error(err))
		return m.snapshot(), fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	m.names = names
	m.logSummary()
	return m.snapshot(), nil
}

// Add appends name to the tail of the team.
func (m *Manager) Add(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		return ErrNotLoaded
	}
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	if m.indexOf(name) >= 0 {
		return ErrDuplicate
	}
	if len(m.names) >= Capacity {
		return ErrFull
	}
	m.names = append(m.names, name)
	return m.persist(ctx, "add")
}

// RemoveLast pops the most recently added member and returns its name.
func (m *Manager) RemoveLast(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		return "", ErrNotLoaded
	}
	if len(m.names) == 0 {
		return "", ErrEmpty
	}
	last := m.names[len(m.names)-1]
	m.names = m.names[:len(m.names)-1]
	return last, m.persist(ctx, "remove last")
}

// Clear empties the team and deletes the stored value. Clearing an empty
// team succeeds.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		return ErrNotLoaded
	}
	m.names = []string{}
	if err := m.store.Remove(ctx, StorageKey); err != nil {
		m.logger.Warn("failed to clear stored team", zap.Error(err))
		return &PersistError{Op: "clear", Err: err}
	}
	m.logSummary()
	return nil
}

// GenerateRandom replaces the team with size names drawn uniformly without
// replacement from candidates. Candidates sharing a name count once.
func (m *Manager) GenerateRandom(ctx context.Context, candidates []catalog.Entry, size int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		return nil, ErrNotLoaded
	}
	if size < 1 || size > Capacity {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}

	pool := make([]string, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		name := strings.TrimSpace(c.Name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		pool = append(pool, name)
	}
	if len(pool) < size {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientCandidates, len(pool), size)
	}

	team := make([]string, 0, size)
	for i := 0; i < size; i++ {
		idx := m.intn(len(pool))
		team = append(team, pool[idx])
		pool = append(pool[:idx], pool[idx+1:]...)
	}
	m.names = team
	return m.snapshot(), m.persist(ctx, "generate random")
}

// Contains reports whether name is in the team.
func (m *Manager) Contains(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.indexOf(strings.TrimSpace(name)) >= 0
}

// List returns a copy of the team in insertion order.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot()
}

// Len returns the team size.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.names)
}

// Loaded reports whether Load has succeeded.
func (m *Manager) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded
}

// persist writes the full team. Callers hold m.mu.
func (m *Manager) persist(ctx context.Context, op string) error {
	data, err := json.Marshal(m.names)
	if err != nil {
		return &PersistError{Op: op, Err: err}
	}
	if err := m.store.Set(ctx, StorageKey, string(data)); err != nil {
		m.logger.Warn("failed to persist team", zap.String("op", op), zap.Error(err))
		return &PersistError{Op: op, Err: err}
	}
	m.logSummary()
	return nil
}

func (m *Manager) logSummary() {
	if ce := m.logger.Check(zap.DebugLevel, "team"); ce != nil {
		ce.Write(zap.String("summary", Summary(m.names)))
	}
}

func (m *Manager) snapshot() []string {
	return append([]string{}, m.names...)
}

func (m *Manager) indexOf(name string) int {
	for i, n := range m.names {
		if n == name {
			return i
		}
	}
	return -1
}

func decode(raw string) ([]string, error) {
	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return nil, err
	}
	if len(names) > Capacity {
		return nil, fmt.Errorf("%d members exceeds capacity %d", len(names), Capacity)
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			return nil, fmt.Errorf("empty member name")
		}
		if strings.TrimSpace(n) != n {
			return nil, fmt.Errorf("member %q has surrounding spaces", n)
		}
		if seen[n] {
			return nil, fmt.Errorf("duplicate member %q", n)
		}
		seen[n] = true
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// Summary renders the team the way the app reports it after each change.
func Summary(names []string) string {
	if len(names) == 0 {
		return "Compose ton équipe maintenant !"
	}
	var b strings.Builder
	b.WriteString("Votre équipe est :")
	for _, n := range names {
		b.WriteString("\n- ")
		b.WriteString(n)
	}
	return b.String()
}
