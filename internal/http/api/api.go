package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/marquee/internal/db"
	"github.com/Nixie-Tech-LLC/marquee/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/marquee/internal/model"
	"github.com/Nixie-Tech-LLC/marquee/internal/targeting"
	"github.com/Nixie-Tech-LLC/marquee/internal/telemetry"
)

// APIError is what a handler returns instead of a result. Extra fields are
// merged into the JSON error body.
type APIError struct {
	Code    int
	Message string
	Extra   gin.H
}

func (e *APIError) Error() string { return e.Message }

// Response lets a handler pick a status other than 200 and set headers.
type Response struct {
	Code   int
	Body   any
	Header map[string]string
}

func Created(body any) Response { return Response{Code: http.StatusCreated, Body: body} }

func BadRequest(message string) *APIError {
	return &APIError{Code: http.StatusBadRequest, Message: message}
}

func NotFound(message string) *APIError {
	return &APIError{Code: http.StatusNotFound, Message: message}
}

// FromError maps a domain error onto its HTTP class. Unknown errors become
// a 500 with a generic message and are logged.
func FromError(err error, action string) *APIError {
	var (
		invalidRef     *targeting.InvalidReferenceError
		invalidContent *targeting.InvalidContentError
		inUse          *targeting.ContentInUseError
	)
	switch {
	case errors.As(err, &invalidRef):
		return &APIError{Code: http.StatusBadRequest, Message: err.Error(), Extra: gin.H{"deviceId": invalidRef.DeviceID}}
	case errors.As(err, &invalidContent):
		return &APIError{Code: http.StatusBadRequest, Message: err.Error(), Extra: gin.H{"contentId": invalidContent.ContentID}}
	case errors.As(err, &inUse):
		return &APIError{
			Code:    http.StatusBadRequest,
			Message: "content is used by one or more campaigns",
			Extra:   gin.H{"campaigns": inUse.CampaignNames},
		}
	case errors.Is(err, telemetry.ErrInvalidStatus), errors.Is(err, telemetry.ErrInvalidLevel), errors.Is(err, telemetry.ErrEmptyMessage):
		return BadRequest(err.Error())
	case errors.Is(err, db.ErrDuplicateKey):
		return &APIError{Code: http.StatusBadRequest, Message: err.Error()}
	case errors.Is(err, db.ErrNotFound), errors.Is(err, targeting.ErrDeviceNotFound):
		return &APIError{Code: http.StatusNotFound, Message: err.Error()}
	}
	log.Error().Err(err).Str("action", action).Msg("[api] internal error")
	return &APIError{Code: http.StatusInternalServerError, Message: "could not " + action}
}

type HandlerFuncWithAuth func(ctx *gin.Context, user *model.User) (any, *APIError)
type HandlerFunc func(ctx *gin.Context) (any, *APIError)

func ResolveEndpointWithAuth(h HandlerFuncWithAuth) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, ok := middleware.GetCurrentUser(ctx)
		if !ok {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		result, apiErr := h(ctx, user)
		write(ctx, result, apiErr)
	}
}

func ResolveEndpoint(h HandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		result, apiErr := h(ctx)
		write(ctx, result, apiErr)
	}
}

func write(ctx *gin.Context, result any, apiErr *APIError) {
	if apiErr != nil {
		body := gin.H{"error": apiErr.Message}
		for k, v := range apiErr.Extra {
			body[k] = v
		}
		_ = ctx.Error(apiErr)
		ctx.JSON(apiErr.Code, body)
		return
	}
	if r, ok := result.(Response); ok {
		for k, v := range r.Header {
			ctx.Header(k, v)
		}
		if r.Code == http.StatusNotModified {
			ctx.Status(r.Code)
			return
		}
		ctx.JSON(r.Code, r.Body)
		return
	}
	ctx.JSON(http.StatusOK, result)
}
