package endpoints

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/marquee/internal/db"
	"github.com/Nixie-Tech-LLC/marquee/internal/http/api"
	"github.com/Nixie-Tech-LLC/marquee/internal/http/api/control/packets"
	"github.com/Nixie-Tech-LLC/marquee/internal/metrics"
	"github.com/Nixie-Tech-LLC/marquee/internal/model"
	"github.com/Nixie-Tech-LLC/marquee/internal/mqtt"
	"github.com/Nixie-Tech-LLC/marquee/internal/redis"
	"github.com/Nixie-Tech-LLC/marquee/internal/targeting"
)

type CampaignController struct {
	store     db.Store
	checker   *targeting.Checker
	evaluator *targeting.Evaluator
	notifier  *mqtt.Notifier
	cache     *redis.CampaignCache
	now       func() time.Time
}

// CampaignModule mounts /campaigns, including the device-facing
// /campaigns/device/:deviceId that players poll.
func CampaignModule(store db.Store, notifier *mqtt.Notifier, cache *redis.CampaignCache) api.Module {
	ctl := &CampaignController{
		store:     store,
		checker:   targeting.NewChecker(store),
		evaluator: targeting.NewEvaluator(store),
		notifier:  notifier,
		cache:     cache,
		now:       time.Now,
	}
	return api.ModuleFunc(ctl.mount)
}

func (cc *CampaignController) mount(c *api.Controller) {
	c.PUBLIC_GET("/campaigns", cc.listCampaigns)
	c.PUBLIC_GET("/campaigns/device/:deviceId", cc.campaignsForDevice)
	c.PUBLIC_GET("/campaigns/:id", cc.getCampaign)
	c.POST("/campaigns", cc.createCampaign)
	c.PUT("/campaigns/:id", cc.updateCampaign)
	c.DELETE("/campaigns/:id", cc.deleteCampaign)
}

func (cc *CampaignController) listCampaigns(ctx *gin.Context) (any, *api.APIError) {
	status, apiErr := queryEnum(ctx, "status", model.CampaignStatus.Valid)
	if apiErr != nil {
		return nil, apiErr
	}
	contentID, apiErr := queryInt(ctx, "contentId")
	if apiErr != nil {
		return nil, apiErr
	}
	campaigns, err := cc.store.ListCampaigns(ctx.Request.Context(), db.CampaignFilter{
		Status:    status,
		DeviceID:  ctx.Query("deviceId"),
		ContentID: contentID,
	})
	if err != nil {
		return nil, api.FromError(err, "list campaigns")
	}
	return campaigns, nil
}

func (cc *CampaignController) getCampaign(ctx *gin.Context) (any, *api.APIError) {
	id, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	campaign, err := cc.store.GetCampaignByID(ctx.Request.Context(), id)
	if err != nil {
		return nil, api.FromError(err, "get campaign")
	}
	resolved := []model.Campaign{*campaign}
	if err := cc.evaluator.ResolveContents(ctx.Request.Context(), resolved); err != nil {
		return nil, api.FromError(err, "get campaign")
	}
	return resolved[0], nil
}

// campaignsForDevice answers "what should this player show right now".
// Players that send back the ETag get a 304 while nothing changed.
func (cc *CampaignController) campaignsForDevice(ctx *gin.Context) (any, *api.APIError) {
	deviceID := ctx.Param("deviceId")
	rctx := ctx.Request.Context()

	campaigns, ok := cc.cache.Get(rctx, deviceID)
	if ok {
		metrics.EligibilityEvaluations.WithLabelValues("cache").Inc()
	} else {
		gen := cc.cache.Generation(rctx, deviceID)
		now := cc.now()
		ev, err := cc.evaluator.Evaluate(rctx, deviceID, now)
		if err != nil {
			return nil, api.FromError(err, "evaluate campaigns")
		}
		metrics.EligibilityEvaluations.WithLabelValues("store").Inc()
		cc.cache.Set(rctx, deviceID, gen, ev.Campaigns, ev.ValidUntil, now)
		campaigns = ev.Campaigns
		log.Debug().Str("device_id", deviceID).Int("campaigns", len(campaigns)).Msg("[campaigns] evaluated")
	}

	etag, err := campaignsETag(campaigns)
	if err != nil {
		return nil, api.FromError(err, "evaluate campaigns")
	}
	header := map[string]string{"ETag": etag}
	if ctx.GetHeader("If-None-Match") == etag {
		return api.Response{Code: http.StatusNotModified, Header: header}, nil
	}
	return api.Response{Code: http.StatusOK, Body: campaigns, Header: header}, nil
}

func campaignsETag(campaigns []model.Campaign) (string, error) {
	raw, err := json.Marshal(campaigns)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return `"` + hex.EncodeToString(sum[:16]) + `"`, nil
}

func validWindow(start, end time.Time) *api.APIError {
	if end.Before(start) {
		return api.BadRequest("endDate must not be before startDate")
	}
	return nil
}

// checkReferences runs the integrity checks for whichever lists are being written.
func (cc *CampaignController) checkReferences(ctx *gin.Context, targets []string, contentIDs []int) *api.APIError {
	if err := cc.checker.ValidateTargetDevices(ctx.Request.Context(), targets); err != nil {
		log.Warn().Err(err).Msg("[campaigns] target validation failed")
		return api.FromError(err, "validate campaign targets")
	}
	if err := cc.checker.ValidateContentRefs(ctx.Request.Context(), contentIDs); err != nil {
		log.Warn().Err(err).Msg("[campaigns] content validation failed")
		return api.FromError(err, "validate campaign content")
	}
	return nil
}

func (cc *CampaignController) createCampaign(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var req packets.CreateCampaignRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, bindError(err)
	}
	if apiErr := validWindow(req.StartDate.Time, req.EndDate.Time); apiErr != nil {
		return nil, apiErr
	}
	if apiErr := cc.checkReferences(ctx, req.TargetDevices, req.ContentIDs); apiErr != nil {
		return nil, apiErr
	}

	campaign := req.ToModel(user.ID)
	if err := cc.store.CreateCampaign(ctx.Request.Context(), campaign); err != nil {
		return nil, api.FromError(err, "create campaign")
	}

	log.Info().Int("id", campaign.ID).Str("status", string(campaign.Status)).Int("user", user.ID).Msg("[campaigns] created")
	cc.cache.Invalidate(ctx.Request.Context(), campaign.TargetDevices...)
	cc.notifier.CampaignChanged(mqtt.EventCreated, campaign.ID, campaign.TargetDevices)
	return api.Created(campaign), nil
}

func (cc *CampaignController) updateCampaign(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	rctx := ctx.Request.Context()
	existing, err := cc.store.GetCampaignByID(rctx, id)
	if err != nil {
		return nil, api.FromError(err, "update campaign")
	}

	var req packets.UpdateCampaignRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, bindError(err)
	}
	update := req.ToUpdate()

	merged := *existing
	update.Apply(&merged)
	if apiErr := validWindow(merged.StartDate, merged.EndDate); apiErr != nil {
		return nil, apiErr
	}

	var targets []string
	if req.TargetDevices != nil {
		targets = *req.TargetDevices
	}
	var contentIDs []int
	if req.ContentIDs != nil {
		contentIDs = *req.ContentIDs
	}
	if apiErr := cc.checkReferences(ctx, targets, contentIDs); apiErr != nil {
		return nil, apiErr
	}

	campaign, err := cc.store.UpdateCampaign(rctx, id, update)
	if err != nil {
		return nil, api.FromError(err, "update campaign")
	}

	log.Info().Int("id", id).Int("user", user.ID).Msg("[campaigns] updated")
	cc.cache.Invalidate(rctx, slices.Concat(existing.TargetDevices, campaign.TargetDevices)...)
	cc.notifier.CampaignChanged(mqtt.EventUpdated, id, existing.TargetDevices, campaign.TargetDevices)
	return campaign, nil
}

func (cc *CampaignController) deleteCampaign(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	rctx := ctx.Request.Context()
	existing, err := cc.store.GetCampaignByID(rctx, id)
	if err != nil {
		return nil, api.FromError(err, "delete campaign")
	}
	if err := cc.store.DeleteCampaign(rctx, id); err != nil {
		return nil, api.FromError(err, "delete campaign")
	}

	log.Info().Int("id", id).Int("user", user.ID).Msg("[campaigns] deleted")
	cc.cache.Invalidate(rctx, existing.TargetDevices...)
	cc.notifier.CampaignChanged(mqtt.EventDeleted, id, existing.TargetDevices)
	return packets.MessageResponse{Message: "campaign deleted"}, nil
}
