package memory

import (
	"context"
	"slices"

	"github.com/Nixie-Tech-LLC/marquee/internal/db"
	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

// cloneCampaign copies the slices so callers never alias stored state.
func cloneCampaign(c model.Campaign) model.Campaign {
	c.TargetDevices = slices.Clone(c.TargetDevices)
	c.ContentIDs = slices.Clone(c.ContentIDs)
	c.Contents = nil
	return c
}

func (s *store) CreateCampaign(_ context.Context, c *model.Campaign) error {
	s.Lock()
	defer s.Unlock()
	c.ApplyDefaults()
	c.ID = s.getNextID("campaigns")
	c.CreatedAt = s.now()
	c.UpdatedAt = c.CreatedAt
	s.campaigns[c.ID] = cloneCampaign(*c)
	return nil
}

func (s *store) GetCampaignByID(_ context.Context, id int) (*model.Campaign, error) {
	s.RLock()
	defer s.RUnlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	out := cloneCampaign(c)
	return &out, nil
}

func (s *store) ListCampaigns(_ context.Context, f db.CampaignFilter) ([]model.Campaign, error) {
	s.RLock()
	defer s.RUnlock()
	out := []model.Campaign{}
	for _, c := range sortedValues(s.campaigns) {
		if f.Match(c) {
			out = append(out, cloneCampaign(c))
		}
	}
	return out, nil
}

func (s *store) UpdateCampaign(_ context.Context, id int, u model.CampaignUpdate) (*model.Campaign, error) {
	s.Lock()
	defer s.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	u.Apply(&c)
	c.UpdatedAt = s.now()
	s.campaigns[id] = cloneCampaign(c)
	out := cloneCampaign(c)
	return &out, nil
}

func (s *store) DeleteCampaign(_ context.Context, id int) error {
	s.Lock()
	defer s.Unlock()
	if _, ok := s.campaigns[id]; !ok {
		return db.ErrNotFound
	}
	delete(s.campaigns, id)
	return nil
}
