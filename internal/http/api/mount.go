package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/marquee/internal/auth"
	"github.com/Nixie-Tech-LLC/marquee/internal/http/middleware"
)

// Module is a pluggable feature that attaches its endpoints to a Controller (a gin group).
type Module interface {
	Mount(c *Controller)
}

// ModuleFunc lets you define a Module with a simple function.
type ModuleFunc func(c *Controller)

func (f ModuleFunc) Mount(c *Controller) { f(c) }

// GroupConfig tells the api package how to mount a group.
type GroupConfig struct {
	Prefix string
	// Auth puts the whole group behind the JWT middleware. Without it, only
	// the Controller's authenticated routes check the token.
	Auth       bool
	Issuer     *auth.Issuer          // required for any authenticated route
	Users      middleware.UserFinder // required for any authenticated route
	Middleware []gin.HandlerFunc     // optional additional middleware
}

// MountGroup mounts one or more Modules under a prefix.
func MountGroup(parent gin.IRoutes, cfg GroupConfig, modules ...Module) {
	var grp *gin.RouterGroup

	switch v := parent.(type) {
	case *gin.Engine:
		grp = v.Group(cfg.Prefix)
	case *gin.RouterGroup:
		if cfg.Prefix != "" {
			grp = v.Group(cfg.Prefix)
		} else {
			grp = v
		}
	default:
		log.Fatal().Str("type", fmt.Sprintf("%T", parent)).Msg("api.MountGroup: unsupported router type")
	}

	// Apply middleware in a deterministic order.
	for _, mw := range cfg.Middleware {
		grp.Use(mw)
	}

	controller := &Controller{Group: grp}
	if cfg.Issuer == nil || cfg.Users == nil {
		if cfg.Auth {
			log.Fatal().Msg("api.MountGroup: Auth enabled but Issuer or Users is missing")
		}
		controller.authenticate = func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication is not configured"})
		}
	} else {
		jwt := middleware.JWTMiddleware(cfg.Issuer, cfg.Users)
		if cfg.Auth {
			grp.Use(jwt)
		} else {
			controller.authenticate = jwt
		}
	}

	for _, m := range modules {
		m.Mount(controller)
	}
}
