package model

import "time"

type DeviceStatus string

const (
	DeviceOnline      DeviceStatus = "online"
	DeviceOffline     DeviceStatus = "offline"
	DeviceMaintenance DeviceStatus = "maintenance"
)

func (s DeviceStatus) Valid() bool {
	switch s {
	case DeviceOnline, DeviceOffline, DeviceMaintenance:
		return true
	}
	return false
}

type Orientation string

const (
	Landscape Orientation = "landscape"
	Portrait  Orientation = "portrait"
)

func (o Orientation) Valid() bool {
	return o == Landscape || o == Portrait
}

// Device represents a display registered with the system. DeviceID is the
// identifier the physical player reports and campaigns target; it never
// changes once the device exists.
type Device struct {
	ID          int          `db:"id"           json:"id"`
	DeviceID    string       `db:"device_id"    json:"deviceId"`
	Name        string       `db:"name"         json:"name"`
	Location    string       `db:"location"     json:"location"`
	Status      DeviceStatus `db:"status"       json:"status"`
	LastSeen    *time.Time   `db:"last_seen"    json:"lastSeen"`
	Orientation Orientation  `db:"orientation"  json:"orientation"`
	Resolution  string       `db:"resolution"   json:"resolution"`
	CreatedAt   time.Time    `db:"created_at"   json:"createdAt"`
	UpdatedAt   time.Time    `db:"updated_at"   json:"updatedAt"`
}

// DeviceUpdate carries the fields of a partial device update. Nil fields
// are left untouched.
type DeviceUpdate struct {
	Name        *string
	Location    *string
	Status      *DeviceStatus
	LastSeen    *time.Time
	Orientation *Orientation
	Resolution  *string
}

// Apply copies every non-nil field of u onto d.
func (u DeviceUpdate) Apply(d *Device) {
	if u.Name != nil {
		d.Name = *u.Name
	}
	if u.Location != nil {
		d.Location = *u.Location
	}
	if u.Status != nil {
		d.Status = *u.Status
	}
	if u.LastSeen != nil {
		t := *u.LastSeen
		d.LastSeen = &t
	}
	if u.Orientation != nil {
		d.Orientation = *u.Orientation
	}
	if u.Resolution != nil {
		d.Resolution = *u.Resolution
	}
}

// ApplyDefaults fills in the fields a new device may omit.
func (d *Device) ApplyDefaults() {
	if d.Status == "" {
		d.Status = DeviceOffline
	}
	if d.Orientation == "" {
		d.Orientation = Landscape
	}
}
