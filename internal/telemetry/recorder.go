// Package telemetry records what players report about themselves: status
// heartbeats and diagnostic log lines. Both the HTTP API and the MQTT
// listener feed it.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

var (
	ErrInvalidStatus = errors.New("invalid device status")
	ErrInvalidLevel  = errors.New("invalid log level")
	ErrEmptyMessage  = errors.New("log message is required")
)

type Store interface {
	GetDeviceByDeviceID(ctx context.Context, deviceID string) (*model.Device, error)
	UpdateDevice(ctx context.Context, id int, u model.DeviceUpdate) (*model.Device, error)
	CreateLog(ctx context.Context, l *model.Log) error
}

type Recorder struct {
	store Store
	now   func() time.Time
}

func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store, now: time.Now}
}

// RecordStatus sets the device's status, stamps lastSeen and appends an info
// log entry. Unknown devices fail with the store's not-found error.
func (r *Recorder) RecordStatus(ctx context.Context, deviceID string, status model.DeviceStatus) (*model.Device, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	d, err := r.store.GetDeviceByDeviceID(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	now := r.now().UTC()
	updated, err := r.store.UpdateDevice(ctx, d.ID, model.DeviceUpdate{Status: &status, LastSeen: &now})
	if err != nil {
		return nil, fmt.Errorf("update status of %q: %w", deviceID, err)
	}

	entry := &model.Log{
		Level:    model.LogInfo,
		Message:  fmt.Sprintf("device %s reported status %s", deviceID, status),
		DeviceID: &deviceID,
		Metadata: map[string]any{"previousStatus": string(d.Status), "status": string(status)},
	}
	if err := r.store.CreateLog(ctx, entry); err != nil {
		// the status write already happened; the audit line is best effort
		log.Warn().Err(err).Str("device_id", deviceID).Msg("[telemetry] could not append status log")
	}
	return updated, nil
}

// RecordLog validates and appends a diagnostic log entry.
func (r *Recorder) RecordLog(ctx context.Context, entry *model.Log) error {
	if entry.Level == "" {
		entry.Level = model.LogInfo
	}
	if !entry.Level.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidLevel, entry.Level)
	}
	if strings.TrimSpace(entry.Message) == "" {
		return ErrEmptyMessage
	}
	if err := r.store.CreateLog(ctx, entry); err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}
