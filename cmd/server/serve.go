package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Nixie-Tech-LLC/marquee/internal/auth"
	"github.com/Nixie-Tech-LLC/marquee/internal/config"
	"github.com/Nixie-Tech-LLC/marquee/internal/metrics"
	"github.com/Nixie-Tech-LLC/marquee/internal/mqtt"
	"github.com/Nixie-Tech-LLC/marquee/internal/redis"
	"github.com/Nixie-Tech-LLC/marquee/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	metrics.Register()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("could not open store")
	}
	defer closeStore()

	cache := initCache(ctx, cfg)
	defer cache.Close()
	recorder := telemetry.NewRecorder(store)

	client, notifier := initMQTT(ctx, cfg, recorder)
	if client != nil {
		defer client.Disconnect()
	}
	defer notifier.Close()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	RegisterRoutes(r, cfg, services{
		store:    store,
		storage:  InitStorage(cfg),
		issuer:   auth.NewIssuer(cfg.JWTSecret, cfg.JWTExpiry),
		recorder: recorder,
		notifier: notifier,
		cache:    cache,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("address", cfg.ServerAddress).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// initCache returns nil, which disables caching, when Redis is not
// configured or unreachable.
func initCache(ctx context.Context, cfg *config.Config) *redis.CampaignCache {
	if cfg.RedisAddress == "" {
		log.Info().Msg("redis not configured, campaign cache disabled")
		return nil
	}
	cache := redis.NewCampaignCache(redis.NewClient(cfg.RedisAddress, cfg.RedisUsername, cfg.RedisPassword), cfg.CampaignCacheTTL)
	if err := cache.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("address", cfg.RedisAddress).Msg("redis unreachable, campaign cache disabled")
		return nil
	}
	log.Info().Str("address", cfg.RedisAddress).Dur("ttl", cfg.CampaignCacheTTL).Msg("campaign cache enabled")
	return cache
}

// initMQTT connects the notifier and the device listener. Without a broker
// URL both are nil and notifications are dropped. An unreachable broker is
// retried in the background; the listener subscribes and the init topics are
// announced whenever the connection comes up.
func initMQTT(ctx context.Context, cfg *config.Config, recorder *telemetry.Recorder) (*mqtt.Client, *mqtt.Notifier) {
	if cfg.MQTTBrokerURL == "" {
		log.Info().Msg("mqtt not configured, notifications disabled")
		return nil, nil
	}

	topics := mqtt.NewTopics(cfg.MQTTTopicPrefix)
	var notifier *mqtt.Notifier
	client := mqtt.NewClient(mqtt.Options{
		BrokerURL: cfg.MQTTBrokerURL,
		ClientID:  cfg.MQTTClientID,
		Username:  cfg.MQTTUsername,
		Password:  cfg.MQTTPassword,
		OnConnect: func() { notifier.Announce() },
	})
	notifier = mqtt.NewNotifier(client, topics)

	if err := mqtt.NewListener(recorder, topics).Subscribe(client); err != nil {
		log.Error().Err(err).Msg("could not subscribe to device topics")
	}
	if err := client.Connect(ctx); err != nil {
		log.Warn().Err(err).Str("broker", cfg.MQTTBrokerURL).Msg("mqtt unavailable, retrying in background")
		return client, notifier
	}
	log.Info().Str("broker", cfg.MQTTBrokerURL).Str("prefix", topics.Prefix).Msg("mqtt connected")
	return client, notifier
}
