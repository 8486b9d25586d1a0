package targeting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/marquee/internal/db"
	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

// Evaluation is the outcome of one eligibility pass for a device.
type Evaluation struct {
	Campaigns []model.Campaign
	// ValidUntil is the next instant at which the result can change through
	// the passage of time alone. Zero means no such instant.
	ValidUntil time.Time
}

// Evaluator decides which campaigns a device should be playing.
type Evaluator struct {
	store Store
}

func NewEvaluator(store Store) *Evaluator {
	return &Evaluator{store: store}
}

// ActiveCampaignsFor returns the campaigns eligible for deviceID at now, with
// their content resolved. The result is unordered.
func (e *Evaluator) ActiveCampaignsFor(ctx context.Context, deviceID string, now time.Time) ([]model.Campaign, error) {
	ev, err := e.Evaluate(ctx, deviceID, now)
	if err != nil {
		return nil, err
	}
	return ev.Campaigns, nil
}

// Evaluate is ActiveCampaignsFor plus the instant the answer expires.
func (e *Evaluator) Evaluate(ctx context.Context, deviceID string, now time.Time) (Evaluation, error) {
	if _, err := e.store.GetDeviceByDeviceID(ctx, deviceID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return Evaluation{}, ErrDeviceNotFound
		}
		return Evaluation{}, fmt.Errorf("look up device %q: %w", deviceID, err)
	}

	active := model.CampaignActive
	candidates, err := e.store.ListCampaigns(ctx, db.CampaignFilter{DeviceID: deviceID, Status: &active})
	if err != nil {
		return Evaluation{}, fmt.Errorf("list campaigns for device %q: %w", deviceID, err)
	}

	ev := Evaluation{Campaigns: []model.Campaign{}}
	for _, c := range candidates {
		switch {
		case c.EligibleFor(deviceID, now):
			ev.Campaigns = append(ev.Campaigns, c)
			ev.ValidUntil = earliest(ev.ValidUntil, c.EndDate.Add(time.Nanosecond))
		case now.Before(c.StartDate):
			ev.ValidUntil = earliest(ev.ValidUntil, c.StartDate)
		}
	}

	if err := e.ResolveContents(ctx, ev.Campaigns); err != nil {
		return Evaluation{}, err
	}
	return ev, nil
}

// ResolveContents fills Contents on every campaign, in each campaign's
// reference order, using one store round trip.
func (e *Evaluator) ResolveContents(ctx context.Context, campaigns []model.Campaign) error {
	var ids []int
	for _, c := range campaigns {
		ids = append(ids, c.ContentIDs...)
	}
	if len(ids) == 0 {
		for i := range campaigns {
			campaigns[i].Contents = []model.Content{}
		}
		return nil
	}

	found, err := e.store.GetContentByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("resolve campaign content: %w", err)
	}
	byID := make(map[int]model.Content, len(found))
	for _, x := range found {
		byID[x.ID] = x
	}

	for i := range campaigns {
		contents := make([]model.Content, 0, len(campaigns[i].ContentIDs))
		for _, id := range campaigns[i].ContentIDs {
			x, ok := byID[id]
			if !ok {
				log.Warn().Int("campaign_id", campaigns[i].ID).Int("content_id", id).
					Msg("[targeting] campaign references missing content")
				continue
			}
			contents = append(contents, x)
		}
		campaigns[i].Contents = contents
	}
	return nil
}

func earliest(current, candidate time.Time) time.Time {
	if current.IsZero() || candidate.Before(current) {
		return candidate
	}
	return current
}
