package memory

import (
	"context"

	"github.com/Nixie-Tech-LLC/marquee/internal/db"
	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

func (s *store) CreateContent(_ context.Context, c *model.Content) error {
	s.Lock()
	defer s.Unlock()
	c.ApplyDefaults()
	c.ID = s.getNextID("content")
	c.CreatedAt = s.now()
	c.UpdatedAt = c.CreatedAt
	s.content[c.ID] = *c
	return nil
}

func (s *store) GetContentByID(_ context.Context, id int) (*model.Content, error) {
	s.RLock()
	defer s.RUnlock()
	if c, ok := s.content[id]; ok {
		return &c, nil
	}
	return nil, db.ErrNotFound
}

func (s *store) GetContentByIDs(_ context.Context, ids []int) ([]model.Content, error) {
	s.RLock()
	defer s.RUnlock()
	out := []model.Content{}
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if c, ok := s.content[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *store) ListContent(_ context.Context, f db.ContentFilter) ([]model.Content, error) {
	s.RLock()
	defer s.RUnlock()
	out := []model.Content{}
	for _, c := range sortedValues(s.content) {
		if f.Match(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *store) UpdateContent(_ context.Context, id int, u model.ContentUpdate) (*model.Content, error) {
	s.Lock()
	defer s.Unlock()
	c, ok := s.content[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	u.Apply(&c)
	c.UpdatedAt = s.now()
	s.content[id] = c
	return &c, nil
}

func (s *store) DeleteContent(_ context.Context, id int) error {
	s.Lock()
	defer s.Unlock()
	if _, ok := s.content[id]; !ok {
		return db.ErrNotFound
	}
	delete(s.content, id)
	return nil
}
