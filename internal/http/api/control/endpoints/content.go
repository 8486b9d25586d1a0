package endpoints

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/marquee/internal/db"
	"github.com/Nixie-Tech-LLC/marquee/internal/http/api"
	"github.com/Nixie-Tech-LLC/marquee/internal/http/api/control/packets"
	"github.com/Nixie-Tech-LLC/marquee/internal/model"
	"github.com/Nixie-Tech-LLC/marquee/internal/mqtt"
	"github.com/Nixie-Tech-LLC/marquee/internal/redis"
	"github.com/Nixie-Tech-LLC/marquee/internal/storage"
	"github.com/Nixie-Tech-LLC/marquee/internal/targeting"
)

type ContentController struct {
	store    db.Store
	checker  *targeting.Checker
	storage  storage.Storage
	maxBytes int64
	notifier *mqtt.Notifier
	cache    *redis.CampaignCache
}

// ContentModule mounts /content. Create and update accept either JSON or a
// multipart form with the media in the "file" field.
func ContentModule(store db.Store, storageSystem storage.Storage, maxBytes int64, notifier *mqtt.Notifier, cache *redis.CampaignCache) api.Module {
	ctl := &ContentController{
		store:    store,
		checker:  targeting.NewChecker(store),
		storage:  storageSystem,
		maxBytes: maxBytes,
		notifier: notifier,
		cache:    cache,
	}
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_GET("/content", ctl.listContent)
		c.PUBLIC_GET("/content/:id", ctl.getContent)
		c.POST("/content", ctl.createContent)
		c.PUT("/content/:id", ctl.updateContent)
		c.DELETE("/content/:id", ctl.deleteContent)
	})
}

func (c *ContentController) listContent(ctx *gin.Context) (any, *api.APIError) {
	typ, apiErr := queryEnum(ctx, "type", model.ContentType.Valid)
	if apiErr != nil {
		return nil, apiErr
	}
	status, apiErr := queryEnum(ctx, "status", model.ContentStatus.Valid)
	if apiErr != nil {
		return nil, apiErr
	}
	all, err := c.store.ListContent(ctx.Request.Context(), db.ContentFilter{Type: typ, Status: status})
	if err != nil {
		return nil, api.FromError(err, "list content")
	}
	return all, nil
}

func (c *ContentController) getContent(ctx *gin.Context) (any, *api.APIError) {
	id, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	x, err := c.store.GetContentByID(ctx.Request.Context(), id)
	if err != nil {
		return nil, api.FromError(err, "get content")
	}
	return x, nil
}

// upload binds the request into req and, for multipart requests with a
// file, stores it. It returns the stored URL and MIME type, or "" when no
// file was sent.
func (c *ContentController) upload(ctx *gin.Context, req any) (url, mimeType string, apiErr *api.APIError) {
	if ctx.ContentType() != binding.MIMEMultipartPOSTForm {
		if err := ctx.ShouldBindJSON(req); err != nil {
			return "", "", bindError(err)
		}
		return "", "", nil
	}

	if c.maxBytes > 0 {
		// room for the form fields around the file
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, c.maxBytes+1<<20)
	}
	if err := ctx.ShouldBindWith(req, binding.FormMultipart); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", "", api.BadRequest(storage.ErrFileTooLarge.Error())
		}
		return "", "", bindError(err)
	}

	fileHeader, err := ctx.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return "", "", nil
	}
	if err != nil {
		return "", "", api.BadRequest("invalid file upload")
	}
	return c.save(ctx, fileHeader)
}

func (c *ContentController) save(ctx *gin.Context, fileHeader *multipart.FileHeader) (string, string, *api.APIError) {
	mimeType, err := storage.CheckUpload(fileHeader, c.maxBytes)
	if err != nil {
		log.Warn().Err(err).Str("filename", fileHeader.Filename).Msg("[content] upload rejected")
		return "", "", api.BadRequest(err.Error())
	}
	url, err := c.storage.SaveFile(ctx.Request.Context(), fileHeader, mimeType)
	if err != nil {
		log.Error().Err(err).Msg("[content] save failed")
		return "", "", &api.APIError{Code: http.StatusInternalServerError, Message: "could not save file"}
	}
	return url, mimeType, nil
}

// discard removes a stored file after the write it belonged to failed.
func (c *ContentController) discard(ctx *gin.Context, url string) {
	if url == "" {
		return
	}
	if err := c.storage.DeleteFile(ctx.Request.Context(), url); err != nil {
		log.Warn().Err(err).Str("url", url).Msg("[content] could not remove file")
	}
}

func (c *ContentController) createContent(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var req packets.CreateContentRequest
	url, mimeType, apiErr := c.upload(ctx, &req)
	if apiErr != nil {
		return nil, apiErr
	}
	if url != "" {
		req.URL = url
		if req.Type == "" {
			req.Type = storage.ContentTypeOf(mimeType)
		}
	}
	if req.Type == "" || req.URL == "" {
		c.discard(ctx, url)
		return nil, api.BadRequest("type and url are required when no file is uploaded")
	}

	content := req.ToModel(user.ID)
	if err := c.store.CreateContent(ctx.Request.Context(), content); err != nil {
		c.discard(ctx, url)
		return nil, api.FromError(err, "create content")
	}

	log.Info().Int("id", content.ID).Str("type", string(content.Type)).Int("user", user.ID).Msg("[content] created")
	c.notifier.ContentChanged(mqtt.EventCreated, content.ID)
	return api.Created(content), nil
}

func (c *ContentController) updateContent(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	rctx := ctx.Request.Context()
	existing, err := c.store.GetContentByID(rctx, id)
	if err != nil {
		return nil, api.FromError(err, "update content")
	}

	var req packets.UpdateContentRequest
	url, mimeType, apiErr := c.upload(ctx, &req)
	if apiErr != nil {
		return nil, apiErr
	}
	if url != "" {
		req.URL = &url
		if req.Type == nil {
			t := storage.ContentTypeOf(mimeType)
			req.Type = &t
		}
	}

	updated, err := c.store.UpdateContent(rctx, id, req.ToUpdate())
	if err != nil {
		c.discard(ctx, url)
		return nil, api.FromError(err, "update content")
	}
	if updated.URL != existing.URL {
		c.discard(ctx, existing.URL)
	}

	log.Info().Int("id", id).Int("user", user.ID).Msg("[content] updated")
	c.cache.InvalidateAll(rctx)
	c.notifier.ContentChanged(mqtt.EventUpdated, id)
	return updated, nil
}

// deleteContent refuses while any campaign still lists the content.
func (c *ContentController) deleteContent(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	rctx := ctx.Request.Context()
	existing, err := c.store.GetContentByID(rctx, id)
	if err != nil {
		return nil, api.FromError(err, "delete content")
	}

	if err := c.checker.AssertContentNotReferenced(rctx, id); err != nil {
		log.Warn().Err(err).Int("id", id).Msg("[content] delete blocked")
		return nil, api.FromError(err, "delete content")
	}
	if err := c.store.DeleteContent(rctx, id); err != nil {
		return nil, api.FromError(err, "delete content")
	}
	c.discard(ctx, existing.URL)

	log.Info().Int("id", id).Int("user", user.ID).Msg("[content] deleted")
	c.notifier.ContentChanged(mqtt.EventDeleted, id)
	return packets.MessageResponse{Message: "content deleted"}, nil
}
