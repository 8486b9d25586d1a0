package endpoints

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/marquee/internal/db"
	"github.com/Nixie-Tech-LLC/marquee/internal/http/api"
	"github.com/Nixie-Tech-LLC/marquee/internal/http/api/control/packets"
	"github.com/Nixie-Tech-LLC/marquee/internal/model"
	"github.com/Nixie-Tech-LLC/marquee/internal/mqtt"
	"github.com/Nixie-Tech-LLC/marquee/internal/redis"
	"github.com/Nixie-Tech-LLC/marquee/internal/telemetry"
)

type DeviceController struct {
	store    db.Store
	recorder *telemetry.Recorder
	notifier *mqtt.Notifier
	cache    *redis.CampaignCache
}

// DeviceModule mounts /devices. Reads are public so players can look
// themselves up; writes require a signed-in user.
func DeviceModule(store db.Store, recorder *telemetry.Recorder, notifier *mqtt.Notifier, cache *redis.CampaignCache) api.Module {
	ctl := &DeviceController{store: store, recorder: recorder, notifier: notifier, cache: cache}
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_GET("/devices", ctl.listDevices)
		c.PUBLIC_GET("/devices/by-device-id/:deviceId", ctl.getDeviceByDeviceID)
		c.PUBLIC_GET("/devices/:id", ctl.getDevice)
		c.POST("/devices", ctl.createDevice)
		c.PUT("/devices/status/:deviceId", ctl.updateDeviceStatus)
		c.PUT("/devices/:id", ctl.updateDevice)
		c.DELETE("/devices/:id", ctl.deleteDevice)
	})
}

func (d *DeviceController) listDevices(ctx *gin.Context) (any, *api.APIError) {
	status, apiErr := queryEnum(ctx, "status", model.DeviceStatus.Valid)
	if apiErr != nil {
		return nil, apiErr
	}
	devices, err := d.store.ListDevices(ctx.Request.Context(), db.DeviceFilter{
		Status:   status,
		Location: ctx.Query("location"),
	})
	if err != nil {
		return nil, api.FromError(err, "list devices")
	}
	return devices, nil
}

func (d *DeviceController) getDevice(ctx *gin.Context) (any, *api.APIError) {
	id, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	device, err := d.store.GetDeviceByID(ctx.Request.Context(), id)
	if err != nil {
		return nil, api.FromError(err, "get device")
	}
	return device, nil
}

func (d *DeviceController) getDeviceByDeviceID(ctx *gin.Context) (any, *api.APIError) {
	device, err := d.store.GetDeviceByDeviceID(ctx.Request.Context(), ctx.Param("deviceId"))
	if err != nil {
		return nil, api.FromError(err, "get device")
	}
	return device, nil
}

func (d *DeviceController) createDevice(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var req packets.CreateDeviceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, bindError(err)
	}

	device := req.ToModel()
	if err := d.store.CreateDevice(ctx.Request.Context(), device); err != nil {
		log.Warn().Err(err).Str("device_id", req.DeviceID).Msg("[devices] createDevice failed")
		return nil, api.FromError(err, "create device")
	}

	log.Info().Int("id", device.ID).Str("device_id", device.DeviceID).Int("user", user.ID).Msg("[devices] created")
	d.notifier.DeviceChanged(mqtt.EventCreated, device.DeviceID)
	return api.Created(device), nil
}

func (d *DeviceController) updateDevice(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	existing, err := d.store.GetDeviceByID(ctx.Request.Context(), id)
	if err != nil {
		return nil, api.FromError(err, "update device")
	}

	var req packets.UpdateDeviceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, bindError(err)
	}
	if req.DeviceID != nil && *req.DeviceID != existing.DeviceID {
		return nil, api.BadRequest("deviceId cannot be changed")
	}

	device, err := d.store.UpdateDevice(ctx.Request.Context(), id, req.ToUpdate())
	if err != nil {
		return nil, api.FromError(err, "update device")
	}

	log.Info().Int("id", id).Int("user", user.ID).Msg("[devices] updated")
	d.notifier.DeviceChanged(mqtt.EventUpdated, device.DeviceID)
	return device, nil
}

func (d *DeviceController) updateDeviceStatus(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var req packets.UpdateDeviceStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, bindError(err)
	}

	deviceID := ctx.Param("deviceId")
	device, err := d.recorder.RecordStatus(ctx.Request.Context(), deviceID, req.Status)
	if err != nil {
		return nil, api.FromError(err, "update device status")
	}

	d.notifier.DeviceChanged(mqtt.EventUpdated, deviceID)
	return device, nil
}

// deleteDevice removes the device but leaves campaigns that target it as
// they are. Those campaigns are logged so an operator can clean them up.
func (d *DeviceController) deleteDevice(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	rctx := ctx.Request.Context()
	device, err := d.store.GetDeviceByID(rctx, id)
	if err != nil {
		return nil, api.FromError(err, "delete device")
	}

	if err := d.store.DeleteDevice(rctx, id); err != nil {
		return nil, api.FromError(err, "delete device")
	}

	targeted, err := d.store.ListCampaigns(rctx, db.CampaignFilter{DeviceID: device.DeviceID})
	if err != nil {
		log.Warn().Err(err).Str("device_id", device.DeviceID).Msg("[devices] could not list campaigns of deleted device")
	} else if len(targeted) > 0 {
		names := make([]string, 0, len(targeted))
		for _, c := range targeted {
			names = append(names, c.Name)
		}
		log.Warn().Str("device_id", device.DeviceID).Strs("campaigns", names).
			Msg("[devices] deleted device is still targeted by campaigns")
	}

	log.Info().Int("id", id).Str("device_id", device.DeviceID).Int("user", user.ID).Msg("[devices] deleted")
	d.cache.Invalidate(rctx, device.DeviceID)
	d.notifier.DeviceChanged(mqtt.EventDeleted, device.DeviceID)
	return packets.MessageResponse{Message: "device deleted"}, nil
}
