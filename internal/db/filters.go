package db

import (
	"strings"
	"time"

	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

type DeviceFilter struct {
	Status   *model.DeviceStatus
	Location string // case-insensitive substring
}

func (f DeviceFilter) Match(d model.Device) bool {
	if f.Status != nil && d.Status != *f.Status {
		return false
	}
	if f.Location != "" && !strings.Contains(strings.ToLower(d.Location), strings.ToLower(f.Location)) {
		return false
	}
	return true
}

type ContentFilter struct {
	Type   *model.ContentType
	Status *model.ContentStatus
}

func (f ContentFilter) Match(c model.Content) bool {
	if f.Type != nil && c.Type != *f.Type {
		return false
	}
	if f.Status != nil && c.Status != *f.Status {
		return false
	}
	return true
}

// CampaignFilter selects campaigns. DeviceID and ContentID test membership
// in the target and content lists; ActiveAt keeps campaigns whose window
// contains the instant.
type CampaignFilter struct {
	Status    *model.CampaignStatus
	DeviceID  string
	ContentID *int
	ActiveAt  *time.Time
}

func (f CampaignFilter) Match(c model.Campaign) bool {
	if f.Status != nil && c.Status != *f.Status {
		return false
	}
	if f.DeviceID != "" && !c.Targets(f.DeviceID) {
		return false
	}
	if f.ContentID != nil && !c.References(*f.ContentID) {
		return false
	}
	if f.ActiveAt != nil && !c.ActiveAt(*f.ActiveAt) {
		return false
	}
	return true
}

// DefaultLogLimit caps ListLogs when no limit is given.
const DefaultLogLimit = 100

type LogFilter struct {
	Level      *model.LogLevel
	DeviceID   string
	CampaignID *int
	ContentID  *int
	Limit      int
}

func (f LogFilter) Match(l model.Log) bool {
	if f.Level != nil && l.Level != *f.Level {
		return false
	}
	if f.DeviceID != "" && (l.DeviceID == nil || *l.DeviceID != f.DeviceID) {
		return false
	}
	if f.CampaignID != nil && (l.CampaignID == nil || *l.CampaignID != *f.CampaignID) {
		return false
	}
	if f.ContentID != nil && (l.ContentID == nil || *l.ContentID != *f.ContentID) {
		return false
	}
	return true
}

func (f LogFilter) EffectiveLimit() int {
	if f.Limit <= 0 {
		return DefaultLogLimit
	}
	return f.Limit
}
