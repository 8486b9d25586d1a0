// Package targeting holds the campaign delivery rules: which references a
// campaign may hold, and which campaigns a device should play right now.
package targeting

import (
	"context"
	"errors"
	"fmt"

	"github.com/Nixie-Tech-LLC/marquee/internal/db"
	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

// Store is the slice of db.Store the targeting rules read from.
type Store interface {
	GetDeviceByDeviceID(ctx context.Context, deviceID string) (*model.Device, error)
	GetContentByIDs(ctx context.Context, ids []int) ([]model.Content, error)
	ListCampaigns(ctx context.Context, f db.CampaignFilter) ([]model.Campaign, error)
}

// Checker validates cross-entity references before a write is committed.
// Nothing here holds a transaction across the check and the write.
type Checker struct {
	store Store
}

func NewChecker(store Store) *Checker {
	return &Checker{store: store}
}

// ValidateTargetDevices fails with *InvalidReferenceError on the first
// identifier without a device. An empty list is accepted as is.
func (c *Checker) ValidateTargetDevices(ctx context.Context, deviceIDs []string) error {
	for _, id := range deviceIDs {
		if _, err := c.store.GetDeviceByDeviceID(ctx, id); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return &InvalidReferenceError{DeviceID: id}
			}
			return fmt.Errorf("look up target device %q: %w", id, err)
		}
	}
	return nil
}

// ValidateContentRefs fails with *InvalidContentError on the first content id
// that does not exist. An empty list is accepted as is.
func (c *Checker) ValidateContentRefs(ctx context.Context, contentIDs []int) error {
	if len(contentIDs) == 0 {
		return nil
	}
	found, err := c.store.GetContentByIDs(ctx, contentIDs)
	if err != nil {
		return fmt.Errorf("look up campaign content: %w", err)
	}
	exists := make(map[int]bool, len(found))
	for _, x := range found {
		exists[x.ID] = true
	}
	for _, id := range contentIDs {
		if !exists[id] {
			return &InvalidContentError{ContentID: id}
		}
	}
	return nil
}

// AssertContentNotReferenced fails with *ContentInUseError when any campaign
// lists contentID among its contents.
func (c *Checker) AssertContentNotReferenced(ctx context.Context, contentID int) error {
	campaigns, err := c.store.ListCampaigns(ctx, db.CampaignFilter{ContentID: &contentID})
	if err != nil {
		return fmt.Errorf("find campaigns using content %d: %w", contentID, err)
	}
	if len(campaigns) == 0 {
		return nil
	}
	names := make([]string, 0, len(campaigns))
	for _, x := range campaigns {
		names = append(names, x.Name)
	}
	return &ContentInUseError{CampaignNames: names}
}
