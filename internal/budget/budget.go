// Package budget meters the consumable API-credit ceiling for one run.
// Every external call charges the guard before it executes; once the ceiling
// is reached further charges are refused and the stage winds down cleanly.
package budget

import (
	"sync/atomic"

	"github.com/rotisserie/eris"
)

// ErrExhausted is the controlled-stop signal stages return when the credit
// ceiling is reached. It marks an incomplete-but-resumable outcome, not a
// failure.
var ErrExhausted = eris.New("budget: credits exhausted")

// Guard tracks credits spent against a run-scoped ceiling. It is the only
// mutable state shared between workers, so charging is a CAS loop: concurrent
// workers can never collectively overshoot the ceiling.
type Guard struct {
	ceiling int64
	spent   atomic.Int64
}

// NewGuard creates a guard with the given ceiling, pre-charged with credits
// already spent by earlier invocations of the same run.
func NewGuard(ceiling, alreadySpent int64) *Guard {
	g := &Guard{ceiling: ceiling}
	if alreadySpent > 0 {
		g.spent.Store(alreadySpent)
	}
	return g
}

// Charge reserves cost credits. It returns whether the charge was granted
// and the credits remaining after the call. A refused charge has no effect
// on the counter.
func (g *Guard) Charge(cost int64) (granted bool, remaining int64) {
	if cost < 0 {
		cost = 0
	}
	for {
		cur := g.spent.Load()
		next := cur + cost
		if next > g.ceiling {
			return false, g.ceiling - cur
		}
		if g.spent.CompareAndSwap(cur, next) {
			return true, g.ceiling - next
		}
	}
}

// Spent returns the credits consumed so far, including prior invocations.
func (g *Guard) Spent() int64 { return g.spent.Load() }

// Remaining returns the credits left under the ceiling.
func (g *Guard) Remaining() int64 {
	r := g.ceiling - g.spent.Load()
	if r < 0 {
		return 0
	}
	return r
}
