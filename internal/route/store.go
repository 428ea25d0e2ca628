package route

import (
	"sync"

	"github.com/google/uuid"
)

// Phase is the coarse state of the store.
type Phase string

// Store phases.
const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseLoaded  Phase = "loaded"
	PhaseFailed  Phase = "failed"
)

// Ticket identifies one issued route request.
type Ticket string

// State is a point-in-time copy of the store.
type State struct {
	Phase   Phase  `json:"phase"`
	Route   Route  `json:"route"`
	Loading bool   `json:"loading"`
	Ticket  Ticket `json:"-"`
}

// Store is the single source of truth for the displayed route.
// It is mutated only through BeginRequest, CompleteRequest and FailRequest.
// Only the latest issued ticket may resolve the pending request.
type Store struct {
	mu      sync.RWMutex
	route   Route
	latest  Ticket
	phase   Phase
	loading bool
}

// NewStore returns an idle store with an empty route.
func NewStore() *Store {
	return &Store{phase: PhaseIdle}
}

// BeginRequest marks the store as loading and issues a new ticket.
// The previous route stays visible until the request resolves.
func (s *Store) BeginRequest() Ticket {
	t := Ticket(uuid.NewString())

	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest = t
	s.loading = true
	s.phase = PhaseLoading

	return t
}

// CompleteRequest replaces the route if t is the latest ticket.
// It returns false and changes nothing for stale tickets.
func (s *Store) CompleteRequest(t Ticket, r Route) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t == "" || t != s.latest || !s.loading {
		return false
	}

	s.route = r.Clone()
	s.loading = false
	s.phase = PhaseLoaded

	return true
}

// FailRequest clears the loading flag if t is the latest ticket, keeping the route.
// It returns false and changes nothing for stale tickets.
func (s *Store) FailRequest(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t == "" || t != s.latest || !s.loading {
		return false
	}

	s.loading = false
	s.phase = PhaseFailed

	return true
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return State{
		Route:   s.route.Clone(),
		Loading: s.loading,
		Phase:   s.phase,
		Ticket:  s.latest,
	}
}
