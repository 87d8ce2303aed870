package orders

import (
	"sync"
	"time"
)

// Store is a mutex-guarded in-memory order store. Orders exist only for
// process lifetime; durable storage is outside this system's scope.
type Store struct {
	mu     sync.RWMutex
	seq    int64
	orders map[int64]*Order
}

func NewStore() *Store {
	return &Store{orders: make(map[int64]*Order)}
}

// Create assigns the next id and stores a copy of the order.
func (s *Store) Create(o Order) *Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	o.ID = s.seq
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	s.orders[o.ID] = &o
	return &o
}

func (s *Store) Get(id int64) (*Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, false
	}
	cp := *o
	return &cp, true
}

func (s *Store) List() []*Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Order, 0, len(s.orders))
	for _, o := range s.orders {
		cp := *o
		out = append(out, &cp)
	}
	return out
}
