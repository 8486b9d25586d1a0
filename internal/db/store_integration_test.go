package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

// openTestStore connects to TEST_DATABASE_URL, applies the migrations and
// empties every table. Tests are skipped when the variable is unset.
func openTestStore(t *testing.T) Store {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := sqlx.ConnectContext(ctx, "postgres", dbURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, RunMigrations(ctx, conn, "../../migrations"))
	_, err = conn.ExecContext(ctx, `TRUNCATE users, devices, content, campaigns, logs RESTART IDENTITY;`)
	require.NoError(t, err)

	return NewStore(conn)
}

func TestStoreIntegration(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	t.Run("User uniqueness", func(t *testing.T) {
		u := &model.User{Username: "ops", Email: "ops@example.com", HashedPassword: "x"}
		require.NoError(t, store.CreateUser(ctx, u))
		assert.Greater(t, u.ID, 0)
		assert.Equal(t, model.RoleUser, u.Role)

		err := store.CreateUser(ctx, &model.User{Username: "ops2", Email: "ops@example.com", HashedPassword: "x"})
		assert.ErrorIs(t, err, ErrDuplicateKey)
	})

	t.Run("Device lookup and partial update", func(t *testing.T) {
		d := &model.Device{DeviceID: "disp-1", Name: "Lobby", Location: "HQ"}
		require.NoError(t, store.CreateDevice(ctx, d))
		assert.Equal(t, model.DeviceOffline, d.Status)

		assert.ErrorIs(t, store.CreateDevice(ctx, &model.Device{DeviceID: "disp-1", Name: "dup"}), ErrDuplicateKey)

		got, err := store.GetDeviceByDeviceID(ctx, "disp-1")
		require.NoError(t, err)
		assert.Equal(t, d.ID, got.ID)

		status := model.DeviceOnline
		updated, err := store.UpdateDevice(ctx, d.ID, model.DeviceUpdate{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, model.DeviceOnline, updated.Status)
		assert.Equal(t, "Lobby", updated.Name)
		assert.Equal(t, "HQ", updated.Location)

		_, err = store.GetDeviceByDeviceID(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Campaign array and window queries", func(t *testing.T) {
		content := &model.Content{Title: "Promo", Type: model.ContentImage, URL: "/uploads/a.png"}
		require.NoError(t, store.CreateContent(ctx, content))

		start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
		c := &model.Campaign{
			Name:          "June",
			Status:        model.CampaignActive,
			StartDate:     start,
			EndDate:       end,
			TargetDevices: []string{"disp-1"},
			ContentIDs:    []int{content.ID},
		}
		require.NoError(t, store.CreateCampaign(ctx, c))

		inside := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
		found, err := store.ListCampaigns(ctx, CampaignFilter{DeviceID: "disp-1", ActiveAt: &inside})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, []int{content.ID}, found[0].ContentIDs)

		after := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
		found, err = store.ListCampaigns(ctx, CampaignFilter{DeviceID: "disp-1", ActiveAt: &after})
		require.NoError(t, err)
		assert.Empty(t, found)

		found, err = store.ListCampaigns(ctx, CampaignFilter{ContentID: &content.ID})
		require.NoError(t, err)
		assert.Len(t, found, 1)

		name := "X"
		updated, err := store.UpdateCampaign(ctx, c.ID, model.CampaignUpdate{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "X", updated.Name)
		assert.Equal(t, model.CampaignActive, updated.Status)
		assert.True(t, start.Equal(updated.StartDate))
		assert.True(t, end.Equal(updated.EndDate))
		assert.Equal(t, []string{"disp-1"}, updated.TargetDevices)
		assert.Equal(t, []int{content.ID}, updated.ContentIDs)

		require.NoError(t, store.DeleteCampaign(ctx, c.ID))
		assert.ErrorIs(t, store.DeleteCampaign(ctx, c.ID), ErrNotFound)
	})

	t.Run("Logs", func(t *testing.T) {
		deviceID := "disp-1"
		l := &model.Log{Level: model.LogWarn, Message: "slow", DeviceID: &deviceID, Metadata: map[string]any{"fps": 12.0}}
		require.NoError(t, store.CreateLog(ctx, l))

		logs, err := store.ListLogs(ctx, LogFilter{DeviceID: deviceID})
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, 12.0, logs[0].Metadata["fps"])
	})
}
