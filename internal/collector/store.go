package collector

import (
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultStateTTL = 5 * time.Minute
	stateKey        = "state"
)

// Store keeps the latest device state for ttl and a one-shot drain request.
type Store struct {
	states *expirable.LRU[string, State]
	armed  atomic.Bool
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &Store{states: expirable.NewLRU[string, State](1, nil, ttl)}
}

func (self *Store) Put(s State) { self.states.Add(stateKey, s) }

func (self *Store) Get() (State, bool) { return self.states.Get(stateKey) }

// ArmDrain makes the next TakeDrain return true.
func (self *Store) ArmDrain() { self.armed.Store(true) }

func (self *Store) Armed() bool { return self.armed.Load() }

func (self *Store) TakeDrain() bool { return self.armed.CompareAndSwap(true, false) }
