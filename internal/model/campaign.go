package model

import (
	"slices"
	"time"
)

type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
)

func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignDraft, CampaignActive, CampaignPaused, CampaignCompleted:
		return true
	}
	return false
}

// Campaign schedules an ordered list of content onto a set of devices for a
// time window. Contents is filled in on reads that resolve references and is
// never persisted.
type Campaign struct {
	ID            int            `json:"id"`
	Name          string         `json:"name"`
	Description   *string        `json:"description,omitempty"`
	Status        CampaignStatus `json:"status"`
	StartDate     time.Time      `json:"startDate"`
	EndDate       time.Time      `json:"endDate"`
	TargetDevices []string       `json:"targetDevices"`
	ContentIDs    []int          `json:"contentIds"`
	Contents      []Content      `json:"contents,omitempty"`
	CreatedBy     int            `json:"createdBy"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// Targets reports whether deviceID is in the target list. Matching is exact
// and case-sensitive.
func (c Campaign) Targets(deviceID string) bool {
	return slices.Contains(c.TargetDevices, deviceID)
}

// References reports whether contentID is in the content list.
func (c Campaign) References(contentID int) bool {
	return slices.Contains(c.ContentIDs, contentID)
}

// ActiveAt reports whether now falls inside [StartDate, EndDate].
func (c Campaign) ActiveAt(now time.Time) bool {
	return !now.Before(c.StartDate) && !now.After(c.EndDate)
}

// EligibleFor reports whether the campaign should be delivered to deviceID at now.
func (c Campaign) EligibleFor(deviceID string, now time.Time) bool {
	return c.Status == CampaignActive && c.Targets(deviceID) && c.ActiveAt(now)
}

type CampaignUpdate struct {
	Name          *string
	Description   *string
	Status        *CampaignStatus
	StartDate     *time.Time
	EndDate       *time.Time
	TargetDevices *[]string
	ContentIDs    *[]int
}

func (u CampaignUpdate) Apply(c *Campaign) {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Description != nil {
		d := *u.Description
		c.Description = &d
	}
	if u.Status != nil {
		c.Status = *u.Status
	}
	if u.StartDate != nil {
		c.StartDate = *u.StartDate
	}
	if u.EndDate != nil {
		c.EndDate = *u.EndDate
	}
	if u.TargetDevices != nil {
		c.TargetDevices = slices.Clone(*u.TargetDevices)
	}
	if u.ContentIDs != nil {
		c.ContentIDs = slices.Clone(*u.ContentIDs)
	}
}

func (c *Campaign) ApplyDefaults() {
	if c.Status == "" {
		c.Status = CampaignDraft
	}
	if c.TargetDevices == nil {
		c.TargetDevices = []string{}
	}
	if c.ContentIDs == nil {
		c.ContentIDs = []int{}
	}
}
