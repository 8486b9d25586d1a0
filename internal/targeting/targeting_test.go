package targeting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/marquee/internal/db"
	"github.com/Nixie-Tech-LLC/marquee/internal/db/memory"
	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	store  db.Store
	banner model.Content
	promo  model.Content
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	s := memory.NewStore()

	for _, id := range []string{"disp-1", "disp-2"} {
		require.NoError(t, s.CreateDevice(ctx, &model.Device{DeviceID: id, Name: id}))
	}
	banner := model.Content{Title: "Banner", Type: model.ContentImage, URL: "/uploads/banner.png", CreatedBy: 1}
	promo := model.Content{Title: "Promo", Type: model.ContentVideo, URL: "/uploads/promo.mp4", CreatedBy: 1}
	require.NoError(t, s.CreateContent(ctx, &banner))
	require.NoError(t, s.CreateContent(ctx, &promo))

	return fixture{store: s, banner: banner, promo: promo}
}

func (f fixture) campaign(t *testing.T, c model.Campaign) model.Campaign {
	t.Helper()
	require.NoError(t, f.store.CreateCampaign(context.Background(), &c))
	return c
}

func TestValidateTargetDevices(t *testing.T) {
	f := newFixture(t)
	c := NewChecker(f.store)
	ctx := context.Background()

	assert.NoError(t, c.ValidateTargetDevices(ctx, nil))
	assert.NoError(t, c.ValidateTargetDevices(ctx, []string{"disp-1", "disp-2"}))

	err := c.ValidateTargetDevices(ctx, []string{"disp-1", "ghost", "phantom"})
	var ref *InvalidReferenceError
	require.ErrorAs(t, err, &ref)
	assert.Equal(t, "ghost", ref.DeviceID)

	// identifiers are case-sensitive
	assert.Error(t, c.ValidateTargetDevices(ctx, []string{"DISP-1"}))
}

func TestValidateContentRefs(t *testing.T) {
	f := newFixture(t)
	c := NewChecker(f.store)
	ctx := context.Background()

	assert.NoError(t, c.ValidateContentRefs(ctx, []int{}))
	assert.NoError(t, c.ValidateContentRefs(ctx, []int{f.promo.ID, f.banner.ID}))

	err := c.ValidateContentRefs(ctx, []int{f.banner.ID, 404})
	var invalid *InvalidContentError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 404, invalid.ContentID)
}

func TestAssertContentNotReferenced(t *testing.T) {
	f := newFixture(t)
	c := NewChecker(f.store)
	ctx := context.Background()

	f.campaign(t, model.Campaign{Name: "Summer", StartDate: date(2025, 6, 1), EndDate: date(2025, 6, 30), ContentIDs: []int{f.banner.ID}})
	f.campaign(t, model.Campaign{Name: "Autumn", StartDate: date(2025, 9, 1), EndDate: date(2025, 9, 30), ContentIDs: []int{f.banner.ID, f.promo.ID}})

	err := c.AssertContentNotReferenced(ctx, f.banner.ID)
	var inUse *ContentInUseError
	require.ErrorAs(t, err, &inUse)
	assert.ElementsMatch(t, []string{"Summer", "Autumn"}, inUse.CampaignNames)
	assert.Contains(t, err.Error(), "Summer")

	unused := model.Content{Title: "Unused", Type: model.ContentURL, URL: "https://example.com", CreatedBy: 1}
	require.NoError(t, f.store.CreateContent(ctx, &unused))
	assert.NoError(t, c.AssertContentNotReferenced(ctx, unused.ID))
}

func TestActiveCampaignsForWindow(t *testing.T) {
	f := newFixture(t)
	e := NewEvaluator(f.store)
	ctx := context.Background()

	june := f.campaign(t, model.Campaign{
		Name:          "June",
		Status:        model.CampaignActive,
		StartDate:     date(2025, 6, 1),
		EndDate:       date(2025, 6, 30),
		TargetDevices: []string{"disp-1"},
		ContentIDs:    []int{f.promo.ID, f.banner.ID},
	})

	got, err := e.ActiveCampaignsFor(ctx, "disp-1", date(2025, 6, 15))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, june.ID, got[0].ID)
	require.Len(t, got[0].Contents, 2)
	assert.Equal(t, "Promo", got[0].Contents[0].Title)
	assert.Equal(t, "Banner", got[0].Contents[1].Title)

	got, err = e.ActiveCampaignsFor(ctx, "disp-1", date(2025, 7, 1))
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = e.ActiveCampaignsFor(ctx, "disp-2", date(2025, 6, 15))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestActiveCampaignsForUnknownDevice(t *testing.T) {
	f := newFixture(t)
	_, err := NewEvaluator(f.store).ActiveCampaignsFor(context.Background(), "ghost", date(2025, 6, 15))
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestActiveCampaignsMatchEligibility(t *testing.T) {
	f := newFixture(t)
	e := NewEvaluator(f.store)
	ctx := context.Background()

	var all []model.Campaign
	for _, status := range []model.CampaignStatus{model.CampaignDraft, model.CampaignActive, model.CampaignPaused, model.CampaignCompleted} {
		for _, targets := range [][]string{{"disp-1"}, {"disp-2"}, {"disp-1", "disp-2"}, {}} {
			all = append(all, f.campaign(t, model.Campaign{
				Name:          string(status),
				Status:        status,
				StartDate:     date(2025, 6, 1),
				EndDate:       date(2025, 6, 30),
				TargetDevices: targets,
			}))
		}
	}

	instants := []time.Time{
		date(2025, 5, 31),
		date(2025, 6, 1),
		date(2025, 6, 15),
		date(2025, 6, 30),
		date(2025, 6, 30).Add(time.Nanosecond),
	}
	for _, device := range []string{"disp-1", "disp-2"} {
		for _, now := range instants {
			got, err := e.ActiveCampaignsFor(ctx, device, now)
			require.NoError(t, err)

			var want, have []int
			for _, c := range all {
				if c.EligibleFor(device, now) {
					want = append(want, c.ID)
				}
			}
			for _, c := range got {
				have = append(have, c.ID)
			}
			assert.ElementsMatch(t, want, have, "device %s at %s", device, now)
		}
	}
}

func TestEvaluateValidUntil(t *testing.T) {
	f := newFixture(t)
	e := NewEvaluator(f.store)
	ctx := context.Background()

	f.campaign(t, model.Campaign{
		Name: "Current", Status: model.CampaignActive,
		StartDate: date(2025, 6, 1), EndDate: date(2025, 6, 30),
		TargetDevices: []string{"disp-1"},
	})
	f.campaign(t, model.Campaign{
		Name: "Upcoming", Status: model.CampaignActive,
		StartDate: date(2025, 6, 20), EndDate: date(2025, 7, 10),
		TargetDevices: []string{"disp-1"},
	})

	ev, err := e.Evaluate(ctx, "disp-1", date(2025, 6, 15))
	require.NoError(t, err)
	require.Len(t, ev.Campaigns, 1)
	assert.Equal(t, date(2025, 6, 20), ev.ValidUntil)

	ev, err = e.Evaluate(ctx, "disp-1", date(2025, 6, 25))
	require.NoError(t, err)
	assert.Len(t, ev.Campaigns, 2)
	assert.Equal(t, date(2025, 6, 30).Add(time.Nanosecond), ev.ValidUntil)

	ev, err = e.Evaluate(ctx, "disp-1", date(2025, 8, 1))
	require.NoError(t, err)
	assert.Empty(t, ev.Campaigns)
	assert.True(t, ev.ValidUntil.IsZero())
}

func TestResolveContentsSkipsMissing(t *testing.T) {
	f := newFixture(t)
	campaigns := []model.Campaign{
		{ID: 1, ContentIDs: []int{f.banner.ID, 999}},
		{ID: 2},
	}
	require.NoError(t, NewEvaluator(f.store).ResolveContents(context.Background(), campaigns))
	require.Len(t, campaigns[0].Contents, 1)
	assert.Equal(t, f.banner.ID, campaigns[0].Contents[0].ID)
	assert.NotNil(t, campaigns[1].Contents)
	assert.Empty(t, campaigns[1].Contents)
}
