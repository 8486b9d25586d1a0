package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Nixie-Tech-LLC/marquee/internal/auth"
	"github.com/Nixie-Tech-LLC/marquee/internal/config"
	"github.com/Nixie-Tech-LLC/marquee/internal/db"
	"github.com/Nixie-Tech-LLC/marquee/internal/db/memory"
	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:          "marquee",
	Short:        "Digital signage management server",
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the MQTT notifier",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the SQL migrations and exit",
	RunE:  runMigrate,
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an administrator account",
	RunE:  runCreateAdmin,
}

var adminFlags struct {
	username string
	email    string
	password string
}

func init() {
	createAdminCmd.Flags().StringVar(&adminFlags.username, "username", "admin", "account username")
	createAdminCmd.Flags().StringVar(&adminFlags.email, "email", "", "account email (required)")
	createAdminCmd.Flags().StringVar(&adminFlags.password, "password", os.Getenv("ADMIN_PASSWORD"), "account password, defaults to $ADMIN_PASSWORD")
	_ = createAdminCmd.MarkFlagRequired("email")

	RootCmd.AddCommand(serveCmd, migrateCmd, createAdminCmd)
}

// Execute runs the root command and is called by main.main()
func Execute() {
	if err := RootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	setupLogging(cfg)
	return cfg, nil
}

// openStore connects to the configured store, applying migrations for
// PostgreSQL. The returned func releases it.
func openStore(ctx context.Context, cfg *config.Config) (db.Store, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		log.Warn().Msg("using the in-memory store, data is lost on exit")
		return memory.NewStore(), func() {}, nil
	}

	conn, err := db.Init(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("db init: %w", err)
	}
	if err := db.RunMigrations(ctx, conn, cfg.MigrationsPath); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("db migrate: %w", err)
	}
	return db.NewStore(conn), func() { _ = conn.Close() }, nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.StoreDriver != config.StoreDriverPostgres {
		return errors.New("migrate needs STORE_DRIVER=postgres")
	}
	_, closeStore, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	closeStore()
	log.Info().Str("path", cfg.MigrationsPath).Msg("migrations applied")
	return nil
}

func runCreateAdmin(cmd *cobra.Command, _ []string) error {
	if len(adminFlags.password) < 6 {
		return errors.New("password must be at least 6 characters")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, closeStore, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	hashed, err := auth.HashPassword(adminFlags.password)
	if err != nil {
		return err
	}
	admin := &model.User{
		Username:       adminFlags.username,
		Email:          adminFlags.email,
		HashedPassword: hashed,
		Role:           model.RoleAdmin,
	}
	if err := store.CreateUser(cmd.Context(), admin); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	log.Info().Int("id", admin.ID).Str("username", admin.Username).Msg("admin account created")
	return nil
}
