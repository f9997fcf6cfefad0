package cache

import "sync"

// Generations counts invalidations per survey. A result computed under one
// generation must not be stored once the survey has moved past it.
type Generations struct {
	mu sync.Mutex
	m  map[string]uint64
}

func NewGenerations() *Generations {
	return &Generations{m: make(map[string]uint64)}
}

func (g *Generations) Current(surveyID string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.m[surveyID]
}

// Bump advances the survey's generation and returns the new value.
func (g *Generations) Bump(surveyID string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.m[surveyID]++
	return g.m[surveyID]
}
