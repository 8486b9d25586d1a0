package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/marquee/internal/metrics"
	"github.com/Nixie-Tech-LLC/marquee/internal/model"
	"github.com/Nixie-Tech-LLC/marquee/internal/telemetry"
)

const handlerTimeout = 5 * time.Second

type Subscriber interface {
	Subscribe(topic string, qos byte, handler MessageHandler) error
}

type statusPayload struct {
	Status model.DeviceStatus `json:"status"`
}

type logPayload struct {
	Level      model.LogLevel `json:"level"`
	Message    string         `json:"message"`
	CampaignID *int           `json:"campaignId"`
	ContentID  *int           `json:"contentId"`
	Metadata   map[string]any `json:"metadata"`
}

// Listener turns player reports published on the broker into store writes.
type Listener struct {
	recorder *telemetry.Recorder
	topics   Topics
}

func NewListener(recorder *telemetry.Recorder, topics Topics) *Listener {
	return &Listener{recorder: recorder, topics: topics}
}

// Subscribe attaches the status and log handlers.
func (l *Listener) Subscribe(s Subscriber) error {
	if err := s.Subscribe(l.topics.DeviceStatus(), defaultQoS, l.HandleStatus); err != nil {
		return err
	}
	return s.Subscribe(l.topics.DeviceLogs(), defaultQoS, l.HandleLog)
}

func (l *Listener) HandleStatus(topic string, payload []byte) (err error) {
	defer observe("status", &err)

	deviceID, leaf, ok := l.topics.ParseDevice(topic)
	if !ok || leaf != "status" {
		return fmt.Errorf("unexpected status topic %q", topic)
	}
	var p statusPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode status from %s: %w", deviceID, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()
	if _, err := l.recorder.RecordStatus(ctx, deviceID, p.Status); err != nil {
		return fmt.Errorf("record status from %s: %w", deviceID, err)
	}
	log.Debug().Str("device_id", deviceID).Str("status", string(p.Status)).Msg("[mqtt] status received")
	return nil
}

func (l *Listener) HandleLog(topic string, payload []byte) (err error) {
	defer observe("log", &err)

	deviceID, leaf, ok := l.topics.ParseDevice(topic)
	if !ok || leaf != "logs" {
		return fmt.Errorf("unexpected log topic %q", topic)
	}
	var p logPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode log from %s: %w", deviceID, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()
	return l.recorder.RecordLog(ctx, &model.Log{
		Level:      p.Level,
		Message:    p.Message,
		DeviceID:   &deviceID,
		CampaignID: p.CampaignID,
		ContentID:  p.ContentID,
		Metadata:   p.Metadata,
	})
}

func observe(kind string, err *error) {
	result := "ok"
	if *err != nil {
		result = "error"
	}
	metrics.MQTTReceived.WithLabelValues(kind, result).Inc()
}
