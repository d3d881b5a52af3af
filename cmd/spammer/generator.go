package main

import (
	"math/rand/v2"
	"sync"

	"github.com/TemirB/usercache/internal/domain"
)

var (
	firstNames = []string{"Frank", "Darth", "John", "Ada", "Grace", "Alan", "Linus", "Ken"}
	lastNames  = []string{"Sinatra", "Vader", "Lennon", "Lovelace", "Hopper", "Turing", "Torvalds", "Thompson"}
)

// generator produces random user events; ids fall in [1, maxID].
type generator struct {
	mu        sync.Mutex
	rnd       *rand.Rand
	maxID     uint32
	deletePct int
}

func newGenerator(rnd *rand.Rand, maxID uint32, deletePct int) *generator {
	return &generator{
		rnd:       rnd,
		maxID:     max(maxID, 1),
		deletePct: min(max(deletePct, 0), 100),
	}
}

func (g *generator) next() domain.UserEvent {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.rnd.Uint32N(g.maxID) + 1
	if g.rnd.IntN(100) < g.deletePct {
		return domain.UserEvent{Op: domain.OpDelete, ID: id}
	}
	name := firstNames[g.rnd.IntN(len(firstNames))] + " " + lastNames[g.rnd.IntN(len(lastNames))]
	return domain.UserEvent{Op: domain.OpUpsert, ID: id, Name: name}
}
