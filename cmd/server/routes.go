package main

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/marquee/internal/auth"
	"github.com/Nixie-Tech-LLC/marquee/internal/config"
	"github.com/Nixie-Tech-LLC/marquee/internal/db"
	"github.com/Nixie-Tech-LLC/marquee/internal/http/api"
	authapi "github.com/Nixie-Tech-LLC/marquee/internal/http/api/auth/endpoints"
	controlapi "github.com/Nixie-Tech-LLC/marquee/internal/http/api/control/endpoints"
	"github.com/Nixie-Tech-LLC/marquee/internal/http/api/control/packets"
	"github.com/Nixie-Tech-LLC/marquee/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/marquee/internal/metrics"
	"github.com/Nixie-Tech-LLC/marquee/internal/mqtt"
	"github.com/Nixie-Tech-LLC/marquee/internal/redis"
	"github.com/Nixie-Tech-LLC/marquee/internal/storage"
	"github.com/Nixie-Tech-LLC/marquee/internal/telemetry"
)

// services are the long-lived collaborators the routes are built from.
type services struct {
	store    db.Store
	storage  storage.Storage
	issuer   *auth.Issuer
	recorder *telemetry.Recorder
	notifier *mqtt.Notifier
	cache    *redis.CampaignCache
}

// RegisterRoutes sets up all application routes
func RegisterRoutes(r *gin.Engine, cfg *config.Config, svc services) {
	if err := packets.RegisterValidators(); err != nil {
		log.Fatal().Err(err).Msg("could not register request validators")
	}

	r.Use(gin.Recovery(), middleware.RequestLogger())
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
			"If-None-Match",
		},
		ExposeHeaders: []string{
			"Content-Length",
			"ETag",
		},
		AllowCredentials: false,
	}))

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api",
		Issuer: svc.issuer,
		Users:  svc.store,
	},
		authapi.AuthModule(svc.issuer, svc.store),
		controlapi.DeviceModule(svc.store, svc.recorder, svc.notifier, svc.cache),
		controlapi.ContentModule(svc.store, svc.storage, cfg.UploadMaxBytes, svc.notifier, svc.cache),
		controlapi.CampaignModule(svc.store, svc.notifier, svc.cache),
		controlapi.UserModule(svc.store),
		controlapi.LogModule(svc.store, svc.recorder),
	)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Static content
	if !cfg.UseSpaces {
		r.Static("/uploads", cfg.UploadDir)
	}
}
