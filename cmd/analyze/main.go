package main

import (
	"context"
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/mkravets/brollscout/internal/ai"
	"github.com/mkravets/brollscout/internal/catalog"
	"github.com/mkravets/brollscout/internal/media"
	"github.com/mkravets/brollscout/internal/pipeline"
)

func run(ctx context.Context, cmd *cli.Command) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is not set")
	}

	client, err := ai.NewClient(ai.Config{
		APIKey: apiKey,
		Model:  cmd.String("model"),
	}, logger)
	if err != nil {
		return err
	}

	executor, err := media.NewExecutor(logger)
	if err != nil {
		return err
	}
	defer executor.Cleanup()

	store, err := catalog.NewStore(cmd.String("project"))
	if err != nil {
		return err
	}

	if cmd.Bool("verify-thumbs") {
		verifier := pipeline.NewVerifier(store, client, executor, logger)
		summary, err := verifier.Run(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Verified %d clips: %d matched, %d mismatched, %d re-picked\n",
			summary.Checked, summary.Matched, summary.Mismatched, summary.Repicked)
		return nil
	}

	runner := pipeline.NewRunner(store, client, executor, pipeline.Options{
		NewOnly:  cmd.Bool("new-only"),
		OnlyFile: cmd.String("file"),
	}, logger)

	summary, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Processed %d videos (%d failed, %d skipped), %d new clips\n",
		summary.VideosProcessed, summary.VideosFailed, summary.VideosSkipped, summary.NewClips)
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "analyze",
		Usage:  "Analyze a folder of videos for B-roll clips and build its catalog",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "project",
				Aliases:  []string{"p"},
				Usage:    "Path to the project folder containing videos",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "new-only",
				Usage: "Skip videos already present in the catalog",
			},
			&cli.StringFlag{
				Name:  "file",
				Usage: "Analyze a single file in the project folder",
			},
			&cli.BoolFlag{
				Name:  "verify-thumbs",
				Usage: "Verify existing previews against clip descriptions instead of analyzing",
			},
			&cli.StringFlag{
				Name:    "model",
				Usage:   "Gemini model to use",
				Sources: cli.EnvVars("GEMINI_MODEL"),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
