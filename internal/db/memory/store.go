// Package memory is an in-process db.Store used by tests and by
// STORE_DRIVER=memory. It enforces the same uniqueness and partial-update
// rules as the PostgreSQL store.
package memory

import (
	"slices"
	"sync"
	"time"

	"github.com/Nixie-Tech-LLC/marquee/internal/db"
	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

type store struct {
	sync.RWMutex

	users     map[int]model.User
	devices   map[int]model.Device
	content   map[int]model.Content
	campaigns map[int]model.Campaign
	logs      []model.Log

	nextID map[string]int
	now    func() time.Time
}

var _ db.Store = (*store)(nil)

// NewStore creates an empty memory-based db.Store.
func NewStore() db.Store {
	return &store{
		users:     make(map[int]model.User),
		devices:   make(map[int]model.Device),
		content:   make(map[int]model.Content),
		campaigns: make(map[int]model.Campaign),
		nextID:    make(map[string]int),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *store) getNextID(kind string) int {
	s.nextID[kind]++
	return s.nextID[kind]
}

// sortedValues returns the map's values ordered by id, matching the
// "ORDER BY id" of the SQL store.
func sortedValues[T any](m map[int]T) []T {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}
