package packets

import (
	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

type CreateDeviceRequest struct {
	DeviceID    string             `json:"deviceId"    binding:"required"`
	Name        string             `json:"name"        binding:"required"`
	Location    string             `json:"location"`
	Status      model.DeviceStatus `json:"status"      binding:"omitempty,devicestatus"`
	Orientation model.Orientation  `json:"orientation" binding:"omitempty,orientation"`
	Resolution  string             `json:"resolution"`
}

func (r CreateDeviceRequest) ToModel() *model.Device {
	return &model.Device{
		DeviceID:    r.DeviceID,
		Name:        r.Name,
		Location:    r.Location,
		Status:      r.Status,
		Orientation: r.Orientation,
		Resolution:  r.Resolution,
	}
}

// UpdateDeviceRequest is a partial update. DeviceID may be sent back
// unchanged but never altered.
type UpdateDeviceRequest struct {
	DeviceID    *string             `json:"deviceId"`
	Name        *string             `json:"name"        binding:"omitempty,min=1"`
	Location    *string             `json:"location"`
	Status      *model.DeviceStatus `json:"status"      binding:"omitempty,devicestatus"`
	Orientation *model.Orientation  `json:"orientation" binding:"omitempty,orientation"`
	Resolution  *string             `json:"resolution"`
}

func (r UpdateDeviceRequest) ToUpdate() model.DeviceUpdate {
	return model.DeviceUpdate{
		Name:        r.Name,
		Location:    r.Location,
		Status:      r.Status,
		Orientation: r.Orientation,
		Resolution:  r.Resolution,
	}
}

type UpdateDeviceStatusRequest struct {
	Status model.DeviceStatus `json:"status" binding:"required,devicestatus"`
}

// CreateContentRequest binds from JSON or from the fields of a multipart
// upload. Type and URL are derived from the file when one is attached.
type CreateContentRequest struct {
	Title       string              `json:"title"       form:"title"       binding:"required"`
	Description *string             `json:"description" form:"description"`
	Type        model.ContentType   `json:"type"        form:"type"        binding:"omitempty,contenttype"`
	URL         string              `json:"url"         form:"url"`
	Duration    *int                `json:"duration"    form:"duration"    binding:"omitempty,min=1"`
	Status      model.ContentStatus `json:"status"      form:"status"      binding:"omitempty,contentstatus"`
}

func (r CreateContentRequest) ToModel(createdBy int) *model.Content {
	c := &model.Content{
		Title:       r.Title,
		Description: r.Description,
		Type:        r.Type,
		URL:         r.URL,
		Status:      r.Status,
		CreatedBy:   createdBy,
	}
	if r.Duration != nil {
		c.Duration = *r.Duration
	}
	return c
}

type UpdateContentRequest struct {
	Title       *string              `json:"title"       form:"title"       binding:"omitempty,min=1"`
	Description *string              `json:"description" form:"description"`
	Type        *model.ContentType   `json:"type"        form:"type"        binding:"omitempty,contenttype"`
	URL         *string              `json:"url"         form:"url"`
	Duration    *int                 `json:"duration"    form:"duration"    binding:"omitempty,min=1"`
	Status      *model.ContentStatus `json:"status"      form:"status"      binding:"omitempty,contentstatus"`
}

func (r UpdateContentRequest) ToUpdate() model.ContentUpdate {
	return model.ContentUpdate{
		Title:       r.Title,
		Description: r.Description,
		Type:        r.Type,
		URL:         r.URL,
		Duration:    r.Duration,
		Status:      r.Status,
	}
}

type CreateCampaignRequest struct {
	Name          string               `json:"name"      binding:"required"`
	Description   *string              `json:"description"`
	Status        model.CampaignStatus `json:"status"    binding:"omitempty,campaignstatus"`
	StartDate     *Timestamp           `json:"startDate" binding:"required"`
	EndDate       *Timestamp           `json:"endDate"   binding:"required"`
	TargetDevices []string             `json:"targetDevices"`
	ContentIDs    []int                `json:"contentIds"`
}

func (r CreateCampaignRequest) ToModel(createdBy int) *model.Campaign {
	return &model.Campaign{
		Name:          r.Name,
		Description:   r.Description,
		Status:        r.Status,
		StartDate:     r.StartDate.Time,
		EndDate:       r.EndDate.Time,
		TargetDevices: r.TargetDevices,
		ContentIDs:    r.ContentIDs,
		CreatedBy:     createdBy,
	}
}

// UpdateCampaignRequest is a partial update. An absent list is left alone,
// an empty one clears it.
type UpdateCampaignRequest struct {
	Name          *string               `json:"name"   binding:"omitempty,min=1"`
	Description   *string               `json:"description"`
	Status        *model.CampaignStatus `json:"status" binding:"omitempty,campaignstatus"`
	StartDate     *Timestamp            `json:"startDate"`
	EndDate       *Timestamp            `json:"endDate"`
	TargetDevices *[]string             `json:"targetDevices"`
	ContentIDs    *[]int                `json:"contentIds"`
}

func (r UpdateCampaignRequest) ToUpdate() model.CampaignUpdate {
	return model.CampaignUpdate{
		Name:          r.Name,
		Description:   r.Description,
		Status:        r.Status,
		StartDate:     r.StartDate.Ptr(),
		EndDate:       r.EndDate.Ptr(),
		TargetDevices: r.TargetDevices,
		ContentIDs:    r.ContentIDs,
	}
}

type CreateUserRequest struct {
	Username string     `json:"username" binding:"required,min=3"`
	Email    string     `json:"email"    binding:"required,email"`
	Password string     `json:"password" binding:"required,min=6"`
	Role     model.Role `json:"role"     binding:"omitempty,role"`
}

type UpdateUserRequest struct {
	Username *string     `json:"username" binding:"omitempty,min=3"`
	Email    *string     `json:"email"    binding:"omitempty,email"`
	Password *string     `json:"password" binding:"omitempty,min=6"`
	Role     *model.Role `json:"role"     binding:"omitempty,role"`
}

type CreateLogRequest struct {
	Level      model.LogLevel `json:"level"   binding:"omitempty,loglevel"`
	Message    string         `json:"message" binding:"required"`
	DeviceID   *string        `json:"deviceId"`
	CampaignID *int           `json:"campaignId"`
	ContentID  *int           `json:"contentId"`
	Metadata   map[string]any `json:"metadata"`
}

func (r CreateLogRequest) ToModel() *model.Log {
	return &model.Log{
		Level:      r.Level,
		Message:    r.Message,
		DeviceID:   r.DeviceID,
		CampaignID: r.CampaignID,
		ContentID:  r.ContentID,
		Metadata:   r.Metadata,
	}
}
