package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"chronosec/config"
	"chronosec/internal/advisor"
	"chronosec/internal/deadlines"
	"chronosec/internal/llm"
	"chronosec/internal/logger"
	"chronosec/internal/progress"
	"chronosec/internal/server"
	"chronosec/internal/session"
	"chronosec/internal/telemetry"
)

var (
	serveAddr string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the timeline API, the progress websocket and /metrics. With intake.enabled
the Redis intake pipeline runs in the same process and its timelines are served as sessions.`,
		RunE: runServe,
	}
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cs := cfg.Chronosec
	if serveAddr != "" {
		cs.Server.Addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cs.Telemetry.Enabled {
		shutdown, err := initTracing(cs.Telemetry)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				logger.Errorf("Failed to flush traces: %v", err)
			}
		}()
	}

	store, err := progress.New(progressConfig(cs.Progress))
	if err != nil {
		return fmt.Errorf("open progress store: %w", err)
	}
	defer store.Close()

	hub := progress.NewHub()
	sessions, err := session.NewManager(cs.Session.Size, progress.WithHub(store, hub))
	if err != nil {
		return err
	}
	tracker := newTracker(cs.Deadlines)
	sessions.OnEvict(tracker.Forget)

	srv, err := server.New(server.Deps{
		Sessions:  sessions,
		Hub:       hub,
		Advisor:   newAdvisor(cs.AI),
		Deadlines: tracker,
		Logger:    logger.Slog(),
	}, server.Options{
		Addr:              cs.Server.Addr,
		RequestTimeout:    cs.Server.RequestTimeout,
		ReadHeaderTimeout: cs.Server.ReadHeaderTimeout,
		Tracing:           cs.Telemetry.Enabled,
		ServiceName:       cs.Telemetry.ServiceName,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx, cs.Server.ShutdownTimeout)
	})

	if cs.Intake.Enabled {
		p, err := newIntakePipeline(gctx, cs, sessions, tracker)
		if err != nil {
			stop()
			_ = g.Wait()
			return err
		}
		g.Go(func() error {
			defer p.Close()
			if err := p.Run(gctx); err != nil && gctx.Err() == nil {
				return err
			}
			return nil
		})
	}

	return g.Wait()
}

func initTracing(tc config.TelemetryConfig) (func(context.Context) error, error) {
	var w io.Writer = os.Stdout
	var f *os.File
	if tc.File != "" {
		var err error
		f, err = os.OpenFile(tc.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, err
		}
		w = f
	}
	shutdown, err := telemetry.InitTracer(tc.ServiceName, w, logger.Slog())
	if err != nil {
		if f != nil {
			_ = f.Close()
		}
		return nil, err
	}
	return func(ctx context.Context) error {
		err := shutdown(ctx)
		if f != nil {
			_ = f.Close()
		}
		return err
	}, nil
}

func progressConfig(pc config.ProgressConfig) progress.Config {
	return progress.Config{
		Mode: pc.Mode,
		Redis: progress.RedisConfig{
			Addr:      pc.Redis.Addr,
			Password:  pc.Redis.Password,
			DB:        pc.Redis.DB,
			KeyPrefix: pc.Redis.KeyPrefix,
			TTL:       pc.Redis.TTL,
		},
		SQLitePath: pc.SQLite.Path,
	}
}

func newAdvisor(ac config.AIConfig) *advisor.Advisor {
	opts := []llm.ClientOption{llm.WithModel(ac.Model), llm.WithTimeout(ac.Timeout)}
	if ac.BaseURL != "" {
		opts = append(opts, llm.WithBaseURL(ac.BaseURL))
	}
	client := llm.NewClient(ac.APIKey, opts...)
	if !client.Enabled() {
		logger.Warnf("AI enhancement disabled: no api key configured")
	}
	return advisor.New(client, advisor.Config{
		Model:           ac.Model,
		MaxPromptTokens: ac.MaxPromptTokens,
		Timeout:         ac.Timeout,
	})
}

func newTracker(dc config.DeadlinesConfig) *deadlines.Tracker {
	return deadlines.NewTracker(deadlines.Config{Window: dc.Window, Cooldown: dc.Cooldown})
}
