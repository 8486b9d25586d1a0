package targeting

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDeviceNotFound is returned when eligibility is requested for a device
// identifier that has no Device record.
var ErrDeviceNotFound = errors.New("device not found")

// InvalidReferenceError reports the first target device identifier that does
// not correspond to an existing device.
type InvalidReferenceError struct {
	DeviceID string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("target device %q does not exist", e.DeviceID)
}

// InvalidContentError reports the first content reference that does not exist.
type InvalidContentError struct {
	ContentID int
}

func (e *InvalidContentError) Error() string {
	return fmt.Sprintf("content %d does not exist", e.ContentID)
}

// ContentInUseError blocks a content deletion and names the campaigns that
// still reference it.
type ContentInUseError struct {
	CampaignNames []string
}

func (e *ContentInUseError) Error() string {
	return "content is used by campaigns: " + strings.Join(e.CampaignNames, ", ")
}
