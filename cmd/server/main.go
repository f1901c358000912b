package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/mkravets/brollscout/internal/ai"
	"github.com/mkravets/brollscout/internal/api"
	"github.com/mkravets/brollscout/internal/catalog"
	"github.com/mkravets/brollscout/internal/config"
	"github.com/mkravets/brollscout/internal/jobs"
	"github.com/mkravets/brollscout/internal/media"
	"github.com/mkravets/brollscout/internal/pipeline"
	"github.com/mkravets/brollscout/internal/registry"
)

func run(ctx context.Context, cmd *cli.Command) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	client, err := ai.NewClient(ai.Config{
		APIKey: cfg.Gemini.APIKey,
		Model:  cfg.Gemini.Model,
	}, logger)
	if err != nil {
		return err
	}

	executor, err := media.NewExecutor(logger)
	if err != nil {
		return err
	}
	defer executor.Cleanup()

	reg, err := registry.Open(cfg.Registry.Path)
	if err != nil {
		return err
	}
	defer reg.Close()

	manager := jobs.NewManager()

	previewOpts := media.PreviewOptions{
		FPS:       cfg.Preview.FPS,
		Width:     cfg.Preview.Width,
		MaxColors: cfg.Preview.MaxColors,
	}

	analyze := func(ctx context.Context, project *registry.Project, req api.AnalyzeRequest, w io.Writer) error {
		// Each job gets its own logger so its output lands in the job's
		// log buffer.
		jobLogger := zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).With().Timestamp().Logger()

		store, err := catalog.NewStore(project.Path)
		if err != nil {
			return err
		}

		if req.Verify {
			verifier := pipeline.NewVerifier(store, client, executor, jobLogger)
			_, err := verifier.Run(ctx)
			return err
		}

		runner := pipeline.NewRunner(store, client, executor, pipeline.Options{
			NewOnly:  req.NewOnly,
			OnlyFile: req.File,
			Preview:  previewOpts,
		}, jobLogger)
		_, err = runner.Run(ctx)
		return err
	}

	app := &api.App{
		Registry: reg,
		Jobs:     manager,
		Analyze:  analyze,
		Logger:   logger,
	}

	httpServer := &http.Server{
		Addr:    cfg.Server.Address(),
		Handler: api.NewRouter(app),
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("address", cfg.Server.Address()).Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		case <-gCtx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("HTTP server shutdown error")
		}

		manager.Wait()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "server",
		Usage:  "Serve the B-roll catalog and analysis jobs over HTTP",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   "config.yaml",
				Sources: cli.EnvVars("BROLLSCOUT_CONFIG"),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
