package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/az-math/azmath/internal/auth"
	"github.com/az-math/azmath/internal/bootstrap"
	"github.com/az-math/azmath/internal/config"
	"github.com/az-math/azmath/internal/content"
	"github.com/az-math/azmath/internal/database"
	"github.com/az-math/azmath/internal/render"
	"github.com/az-math/azmath/internal/resolve"
	"github.com/az-math/azmath/internal/server"
	"github.com/az-math/azmath/internal/store"
)

var configFile string

func main() {
	var debugMode bool
	rootCmd := &cobra.Command{
		Use:           "azmath-server",
		Short:         "az-math content HTTP server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogger(debugMode)
			return run(cmd.Context())
		},
	}
	rootCmd.Flags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug mode")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	app := bootstrap.New()

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("config.Load() > %w", err)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("database.Open() > %w", err)
	}
	app.AddShutdownHook("database", func(ctx context.Context) error {
		return db.Close()
	})

	documentStore := store.NewMySQLStore(db)
	assembler, err := content.NewAssembler()
	if err != nil {
		return fmt.Errorf("content.NewAssembler() > %w", err)
	}
	renderer, err := render.NewRenderer(
		resolve.NewResolver(documentStore),
		cfg.Content.BlockTemplatesPath,
	)
	if err != nil {
		return fmt.Errorf("render.NewRenderer() > %w", err)
	}

	identity := auth.StaticIdentity{
		Label: cfg.Content.AuthorLabel,
		Admin: cfg.Content.AdminEnabled,
	}
	handler := server.NewHandler(documentStore, documentStore, assembler, renderer, identity)

	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: server.CORSMiddleware(
			h2c.NewHandler(handler.Mux(), &http2.Server{}),
			cfg.Server.CORS.AllowedOrigins,
		),
	}
	app.AddShutdownHook("http server", srv.Shutdown)

	return app.Run(ctx, func(ctx context.Context) error {
		slog.Default().Info("Starting server", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
}

func setupLogger(debugMode bool) {
	logLevel := slog.LevelInfo
	if debugMode {
		logLevel = slog.LevelDebug
	}

	slog.SetDefault(
		slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel,
		})),
	)
}
