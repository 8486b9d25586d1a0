package model

import "time"

type ContentType string

const (
	ContentImage ContentType = "image"
	ContentVideo ContentType = "video"
	ContentHTML  ContentType = "html"
	ContentURL   ContentType = "url"
)

func (t ContentType) Valid() bool {
	switch t {
	case ContentImage, ContentVideo, ContentHTML, ContentURL:
		return true
	}
	return false
}

type ContentStatus string

const (
	ContentActive   ContentStatus = "active"
	ContentInactive ContentStatus = "inactive"
)

func (s ContentStatus) Valid() bool {
	return s == ContentActive || s == ContentInactive
}

// DefaultContentDuration is the display time in seconds used when none is given.
const DefaultContentDuration = 10

type Content struct {
	ID          int           `db:"id"           json:"id"`
	Title       string        `db:"title"        json:"title"`
	Description *string       `db:"description"  json:"description,omitempty"`
	Type        ContentType   `db:"type"         json:"type"`
	URL         string        `db:"url"          json:"url"`
	Duration    int           `db:"duration"     json:"duration"`
	Status      ContentStatus `db:"status"       json:"status"`
	CreatedBy   int           `db:"created_by"   json:"createdBy"`
	CreatedAt   time.Time     `db:"created_at"   json:"createdAt"`
	UpdatedAt   time.Time     `db:"updated_at"   json:"updatedAt"`
}

type ContentUpdate struct {
	Title       *string
	Description *string
	Type        *ContentType
	URL         *string
	Duration    *int
	Status      *ContentStatus
}

func (u ContentUpdate) Apply(c *Content) {
	if u.Title != nil {
		c.Title = *u.Title
	}
	if u.Description != nil {
		d := *u.Description
		c.Description = &d
	}
	if u.Type != nil {
		c.Type = *u.Type
	}
	if u.URL != nil {
		c.URL = *u.URL
	}
	if u.Duration != nil {
		c.Duration = *u.Duration
	}
	if u.Status != nil {
		c.Status = *u.Status
	}
}

func (c *Content) ApplyDefaults() {
	if c.Duration <= 0 {
		c.Duration = DefaultContentDuration
	}
	if c.Status == "" {
		c.Status = ContentActive
	}
}
