package model

import "time"

type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

func (l LogLevel) Valid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Log is an append-only diagnostic record, optionally tied to a device,
// campaign or content item.
type Log struct {
	ID         int            `json:"id"`
	Level      LogLevel       `json:"level"`
	Message    string         `json:"message"`
	DeviceID   *string        `json:"deviceId,omitempty"`
	CampaignID *int           `json:"campaignId,omitempty"`
	ContentID  *int           `json:"contentId,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}
