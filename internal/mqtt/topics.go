package mqtt

import (
	"strconv"
	"strings"
)

const (
	KindDevices   = "devices"
	KindCampaigns = "campaigns"
	KindContent   = "content"

	DefaultTopicPrefix = "signage"
)

// Topics builds topic names under a common prefix.
type Topics struct {
	Prefix string
}

func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{Prefix: prefix}
}

func (t Topics) join(parts ...string) string {
	return t.Prefix + "/" + strings.Join(parts, "/")
}

// Init is the retained announcement topic for an entity kind.
func (t Topics) Init(kind string) string { return t.join(kind, "init") }

func (t Topics) Events(kind, id string) string { return t.join(kind, id, "events") }

func (t Topics) DeviceEvents(deviceID string) string { return t.Events(KindDevices, deviceID) }

func (t Topics) CampaignEvents(id int) string { return t.Events(KindCampaigns, strconv.Itoa(id)) }

func (t Topics) ContentEvents(id int) string { return t.Events(KindContent, strconv.Itoa(id)) }

// Refresh tells one player to pull its campaigns again.
func (t Topics) Refresh(deviceID string) string { return t.join(KindDevices, deviceID, "refresh") }

func (t Topics) DeviceStatus() string { return t.join(KindDevices, "+", "status") }

func (t Topics) DeviceLogs() string { return t.join(KindDevices, "+", "logs") }

// ParseDevice splits "<prefix>/devices/<deviceId>/<leaf>".
func (t Topics) ParseDevice(topic string) (deviceID, leaf string, ok bool) {
	rest, found := strings.CutPrefix(topic, t.Prefix+"/"+KindDevices+"/")
	if !found {
		return "", "", false
	}
	deviceID, leaf, found = strings.Cut(rest, "/")
	if !found || deviceID == "" || leaf == "" || strings.Contains(leaf, "/") {
		return "", "", false
	}
	return deviceID, leaf, true
}
