package endpoints

import (
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/marquee/internal/db"
	"github.com/Nixie-Tech-LLC/marquee/internal/http/api"
	"github.com/Nixie-Tech-LLC/marquee/internal/http/api/control/packets"
	"github.com/Nixie-Tech-LLC/marquee/internal/model"
	"github.com/Nixie-Tech-LLC/marquee/internal/telemetry"
)

type LogController struct {
	store    db.Store
	recorder *telemetry.Recorder
}

func LogModule(store db.Store, recorder *telemetry.Recorder) api.Module {
	ctl := &LogController{store: store, recorder: recorder}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/logs", ctl.listLogs)
		c.POST("/logs", ctl.createLog)
	})
}

func (l *LogController) listLogs(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	level, apiErr := queryEnum(ctx, "level", model.LogLevel.Valid)
	if apiErr != nil {
		return nil, apiErr
	}
	campaignID, apiErr := queryInt(ctx, "campaignId")
	if apiErr != nil {
		return nil, apiErr
	}
	contentID, apiErr := queryInt(ctx, "contentId")
	if apiErr != nil {
		return nil, apiErr
	}
	limit, apiErr := queryInt(ctx, "limit")
	if apiErr != nil {
		return nil, apiErr
	}

	f := db.LogFilter{
		Level:      level,
		DeviceID:   ctx.Query("deviceId"),
		CampaignID: campaignID,
		ContentID:  contentID,
	}
	if limit != nil {
		f.Limit = *limit
	}
	logs, err := l.store.ListLogs(ctx.Request.Context(), f)
	if err != nil {
		return nil, api.FromError(err, "list logs")
	}
	return logs, nil
}

func (l *LogController) createLog(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var req packets.CreateLogRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, bindError(err)
	}
	entry := req.ToModel()
	if err := l.recorder.RecordLog(ctx.Request.Context(), entry); err != nil {
		return nil, api.FromError(err, "create log")
	}
	return api.Created(entry), nil
}
