package plane

import "sync"

// Guard serialises access to one pile from several goroutines
// Every plane of the pile must only be touched inside Do
type Guard struct {
	mu   sync.Mutex
	pile *Pile
}

// NewGuard wraps pile in a coarse lock
func NewGuard(pile *Pile) *Guard {
	return &Guard{pile: pile}
}

// Do runs fn with exclusive access to the pile
func (g *Guard) Do(fn func(*Pile) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn(g.pile)
}
