package endpoints

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/marquee/internal/http/api"
)

func pathID(ctx *gin.Context, name string) (int, *api.APIError) {
	raw := ctx.Param(name)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		log.Warn().Str(name, raw).Str("path", ctx.FullPath()).Msg("[api] invalid id")
		return 0, api.BadRequest("invalid " + name)
	}
	return id, nil
}

func queryInt(ctx *gin.Context, name string) (*int, *api.APIError) {
	raw, ok := ctx.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, api.BadRequest("invalid " + name)
	}
	return &v, nil
}

// queryEnum reads an optional enum filter and rejects values outside it.
func queryEnum[T ~string](ctx *gin.Context, name string, valid func(T) bool) (*T, *api.APIError) {
	raw, ok := ctx.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	v := T(raw)
	if !valid(v) {
		return nil, api.BadRequest("invalid " + name + " " + strconv.Quote(raw))
	}
	return &v, nil
}

func bindError(err error) *api.APIError {
	return api.BadRequest(err.Error())
}
