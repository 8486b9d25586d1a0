package memory

import (
	"context"
	"maps"

	"github.com/Nixie-Tech-LLC/marquee/internal/db"
	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

func (s *store) CreateLog(_ context.Context, l *model.Log) error {
	s.Lock()
	defer s.Unlock()
	l.ID = s.getNextID("logs")
	l.CreatedAt = s.now()
	stored := *l
	stored.Metadata = maps.Clone(l.Metadata)
	s.logs = append(s.logs, stored)
	return nil
}

// ListLogs returns matching logs newest first.
func (s *store) ListLogs(_ context.Context, f db.LogFilter) ([]model.Log, error) {
	s.RLock()
	defer s.RUnlock()
	limit := f.EffectiveLimit()
	out := []model.Log{}
	for i := len(s.logs) - 1; i >= 0 && len(out) < limit; i-- {
		if f.Match(s.logs[i]) {
			out = append(out, s.logs[i])
		}
	}
	return out, nil
}
