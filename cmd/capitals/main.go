package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"capitals/config"
	"capitals/internal/api"
	"capitals/internal/application"
	"capitals/internal/domain"
	"capitals/internal/gazetteer"
)

var version = "0.1.0"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "capitals",
		Short: "Answer questions about the capitals of countries and U.S. states",
		Long: `capitals answers "what is the capital of X" for sovereign countries and
U.S. states. Questions arrive over HTTP, websocket, or the voice pipeline;
a language model classifies them and a bundled gazetteer answers them.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")

	rootCmd.AddCommand(serveCmd(&configPath))
	rootCmd.AddCommand(askCmd(&configPath))
	rootCmd.AddCommand(entitiesCmd(&configPath))
	rootCmd.AddCommand(gazetteerCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and, if configured, the voice pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			logger := setupLogger(cfg.Log)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			engine, err := buildEngine(ctx, cfg, logger)
			if err != nil {
				return err
			}

			g, ctx := errgroup.WithContext(ctx)

			server := api.NewServer(engine, cfg.Server.RateLimit, logger)
			g.Go(func() error {
				return server.ListenAndServe(ctx, cfg.Server.Addr)
			})

			if source := createAudioSource(cfg.Audio, logger); source != nil {
				assistant := application.NewAssistant(
					source,
					createSpeechToText(cfg.OpenAI),
					engine,
					createNotifier(cfg.Pushover),
					logger,
				)
				g.Go(func() error {
					if err := assistant.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
						return fmt.Errorf("voice pipeline: %w", err)
					}
					return nil
				})
			}

			logger.Info("starting capitals",
				"version", version,
				"addr", cfg.Server.Addr,
				"classifier", engine.Status().Classifier,
				"audio_source", cfg.Audio.Source,
			)

			err = g.Wait()
			logger.Info("shutting down")
			return err
		},
	}
}

func askCmd(configPath *string) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a single question and exit",
		Example: `  capitals ask "What is the capital of Peru?"
  capitals ask --json what is the capital of Georgia`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			logger := setupLogger(cfg.Log)

			engine, err := buildEngine(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			resp := engine.Process(cmd.Context(), strings.Join(args, " "))

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			fmt.Fprintln(out, resp.Text)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full response payload")

	return cmd
}

func entitiesCmd(configPath *string) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "entities",
		Short: "List the countries and U.S. states the gazetteer knows",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			g, err := loadGazetteer(cmd.Context(), cfg.Gazetteer)
			if err != nil {
				return err
			}

			cats := []domain.Category{domain.CategoryCountry, domain.CategoryState}
			if category != "" {
				cat, err := domain.ParseCategory(category)
				if err != nil {
					return err
				}
				cats = []domain.Category{cat}
			}

			out := cmd.OutOrStdout()
			for _, cat := range cats {
				for _, e := range g.Entities(cat) {
					fmt.Fprintf(out, "%s\t%s\t%s\n", cat, e.Name, e.Capital)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only list one category (country|state)")

	return cmd
}

func gazetteerCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gazetteer",
		Short: "Manage the gazetteer database",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Create the geo_entities table and load the configured datasets into it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if cfg.Gazetteer.PostgresDSN == "" {
				return errors.New("gazetteer.postgres_dsn is not set")
			}
			logger := setupLogger(cfg.Log)

			datasets, err := gazetteer.ReadDatasets(cfg.Gazetteer.CountriesFile, cfg.Gazetteer.StatesFile)
			if err != nil {
				return err
			}

			db, err := openPostgres(cmd.Context(), cfg.Gazetteer.PostgresDSN)
			if err != nil {
				return err
			}
			defer db.Close()

			if _, err := db.ExecContext(cmd.Context(), gazetteer.Schema); err != nil {
				return fmt.Errorf("creating schema: %w", err)
			}
			if err := gazetteer.Seed(cmd.Context(), db, datasets...); err != nil {
				return err
			}

			logger.Info("gazetteer seeded", "datasets", len(datasets))
			return nil
		},
	})

	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
