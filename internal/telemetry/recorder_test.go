package telemetry

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

func TestRecordStatus(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	require.NoError(t, s.CreateDevice(ctx, &model.Device{DeviceID: "disp-1", Name: "Lobby"}))

	seen := time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)
	r := NewRecorder(s)
	r.now = func() time.Time { return seen }

	d, err := r.RecordStatus(ctx, "disp-1", model.DeviceOnline)
	require.NoError(t, err)
	assert.Equal(t, model.DeviceOnline, d.Status)
	require.NotNil(t, d.LastSeen)
	assert.True(t, seen.Equal(*d.LastSeen))
	assert.Equal(t, "Lobby", d.Name)

	logs, err := s.ListLogs(ctx, db.LogFilter{DeviceID: "disp-1"})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.LogInfo, logs[0].Level)
	assert.Equal(t, "offline", logs[0].Metadata["previousStatus"])

	_, err = r.RecordStatus(ctx, "ghost", model.DeviceOnline)
	assert.ErrorIs(t, err, db.ErrNotFound)

	_, err = r.RecordStatus(ctx, "disp-1", "sleeping")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestRecordLog(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder(memory.NewStore())

	entry := &model.Log{Message: "player restarted"}
	require.NoError(t, r.RecordLog(ctx, entry))
	assert.Equal(t, model.LogInfo, entry.Level)
	assert.NotZero(t, entry.ID)

	assert.ErrorIs(t, r.RecordLog(ctx, &model.Log{Level: "fatal", Message: "x"}), ErrInvalidLevel)
	assert.ErrorIs(t, r.RecordLog(ctx, &model.Log{Level: model.LogWarn, Message: "  "}), ErrEmptyMessage)
}
