package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"gopkg.in/natefinch/lumberjack.v2"

	"fitdash/internal/analysis"
	"fitdash/internal/auth"
	"fitdash/internal/config"
	"fitdash/internal/notify"
	"fitdash/internal/server"
	"fitdash/internal/service"
	"fitdash/internal/store"
	"fitdash/internal/strava"
	"fitdash/internal/tui"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	serve := flag.Bool("serve", false, "serve the insights HTTP API instead of the dashboard")
	evaluate := flag.Bool("evaluate", false, "recompute streaks and achievements once and print the result")
	syncOnly := flag.Bool("sync", false, "sync activities from Strava once and exit")
	userID := flag.Int64("user", 0, "athlete id for -evaluate (defaults to the connected athlete)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	headless := *serve || *evaluate
	cfg, err := loadConfig(headless)
	if err != nil || cfg == nil {
		return err
	}

	// The dashboard owns the terminal, so it logs to a file
	var logOut io.Writer = os.Stderr
	if !headless && !*syncOnly {
		lj, err := newLogFile()
		if err != nil {
			return err
		}
		defer lj.Close()
		logOut = lj
	}
	logger, err := newLogger(cfg.LogLevel, logOut)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	insights, err := newInsights(db, cfg, logger)
	if err != nil {
		return err
	}

	switch {
	case *serve:
		return server.New(db, insights, logger).ListenAndServe(ctx, cfg.Server.Addr())
	case *evaluate:
		return runEvaluate(ctx, db, insights, *userID)
	}

	if err := cfg.ValidateStrava(); err != nil {
		configDir, _ := config.GetConfigDir()
		fmt.Printf("Config validation failed: %v\n\n", err)
		fmt.Printf("Please edit the config file at:\n  %s/config.json\n", configDir)
		return nil
	}

	storedAuth, tokenSource, err := connectStrava(ctx, db, cfg, logger)
	if err != nil {
		return err
	}

	client := strava.NewClient(tokenSource, logger)
	syncSvc := service.NewSyncService(client, db, insights, storedAuth.AthleteID, logger)

	if *syncOnly {
		result, err := syncSvc.SyncAll(ctx, nil)
		if err != nil {
			return err
		}
		fmt.Printf("Synced %d activities, %d new achievements\n", result.ActivitiesStored, len(result.Refresh.Unlocked))
		if err := result.Err(); err != nil {
			fmt.Printf("Some activities were not stored: %v\n", err)
		}
		return nil
	}

	app := tui.NewApp(insights, syncSvc, storedAuth.AthleteID, cfg.Display)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

// loadConfig reads the config file. Headless modes fall back to the
// environment when there is no file; the dashboard writes an example file
// and returns a nil config.
func loadConfig(headless bool) (*config.Config, error) {
	cfg, err := config.Load()
	if errors.Is(err, config.ErrNoConfig) {
		if headless {
			cfg = config.FromEnv()
		} else {
			fmt.Println("No config file found. Creating example config...")
			if err := config.CreateExample(); err != nil {
				return nil, fmt.Errorf("creating example config: %w", err)
			}
			configDir, _ := config.GetConfigDir()
			fmt.Printf("\nPlease edit the config file at:\n  %s/config.json\n\n", configDir)
			fmt.Println("You need to add your Strava API credentials.")
			fmt.Println("Get them from: https://www.strava.com/settings/api")
			return nil, nil
		}
	} else if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(level string, w io.Writer) (*slog.Logger, error) {
	lvl, err := config.ParseLogLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

func newLogFile() (*lumberjack.Logger, error) {
	dir, err := config.GetConfigDir()
	if err != nil {
		return nil, err
	}
	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, "fitdash.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		Compress:   true,
	}, nil
}

func newInsights(db *store.DB, cfg *config.Config, logger *slog.Logger) (*service.InsightsService, error) {
	loc, err := cfg.Insights.Location()
	if err != nil {
		return nil, err
	}
	cooldown, err := cfg.Insights.Cooldown()
	if err != nil {
		return nil, err
	}
	catalog, err := analysis.DefaultCatalog()
	if err != nil {
		return nil, fmt.Errorf("loading achievement catalog: %w", err)
	}

	sink := notify.NewSink(db, cooldown, logger)
	return service.NewInsightsService(db, sink, catalog, service.InsightsOptions{
		Engine: analysis.Options{
			Location:           loc,
			StreakAlertMinDays: cfg.Insights.StreakAlertMinDays,
		},
		MinRunsForPredictions: cfg.Insights.MinRunsForPredictions,
	}, logger), nil
}

func runEvaluate(ctx context.Context, db *store.DB, insights *service.InsightsService, userID int64) error {
	if userID == 0 {
		storedAuth, err := db.GetAuth(ctx)
		if err != nil {
			return fmt.Errorf("no -user given and no connected athlete: %w", err)
		}
		userID = storedAuth.AthleteID
	}

	result, err := insights.Refresh(ctx, userID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// connectStrava returns the stored credentials and a refreshing token
// source, running the OAuth flow first when needed
func connectStrava(ctx context.Context, db *store.DB, cfg *config.Config, logger *slog.Logger) (*store.Auth, *auth.TokenSource, error) {
	oauthCfg := auth.NewOAuthConfig(cfg.Strava)

	storedAuth, err := db.GetAuth(ctx)
	if errors.Is(err, store.ErrNoAuth) {
		fmt.Println("No authentication found. Starting OAuth flow...")
		if storedAuth, err = authenticate(ctx, db, cfg); err != nil {
			return nil, nil, fmt.Errorf("authentication: %w", err)
		}
	} else if err != nil {
		return nil, nil, fmt.Errorf("checking auth: %w", err)
	}

	tokenSource := auth.NewTokenSource(oauthCfg, auth.TokenFromRecord(storedAuth), db, logger)

	// Test token is valid by getting a fresh one
	if _, err := tokenSource.Token(); err != nil {
		fmt.Println("Stored token is invalid or expired. Re-authenticating...")
		if storedAuth, err = authenticate(ctx, db, cfg); err != nil {
			return nil, nil, fmt.Errorf("re-authentication: %w", err)
		}
		tokenSource = auth.NewTokenSource(oauthCfg, auth.TokenFromRecord(storedAuth), db, logger)
	}

	return storedAuth, tokenSource, nil
}

func authenticate(ctx context.Context, db *store.DB, cfg *config.Config) (*store.Auth, error) {
	result, err := auth.Authenticate(ctx, auth.NewOAuthConfig(cfg.Strava), os.Stdout)
	if err != nil {
		return nil, err
	}

	rec := result.Record()
	if err := db.SaveAuth(ctx, rec); err != nil {
		return nil, fmt.Errorf("saving auth: %w", err)
	}

	fmt.Printf("\nSuccessfully authenticated as athlete %d!\n", result.AthleteID)
	return rec, nil
}
