package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"daycanvas/internal/capture"
	"daycanvas/internal/config"
	"daycanvas/internal/frame"
	appLog "daycanvas/internal/log"
	"daycanvas/internal/navigator"
	"daycanvas/internal/web"
)

func newServeCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the canvas, its API and the PNG preview",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.load()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config)")
	return cmd
}

func (a *app) serve(ctx context.Context, cfg *config.Config) error {
	appLog.Info("daycanvas starting", "version", version, "listen", cfg.Listen)

	st, err := a.store(cfg)
	if err != nil {
		return err
	}
	if err := st.Refresh(ctx); err != nil {
		appLog.Warn("initial refresh incomplete", "err", err.Error())
	}
	refresher, err := st.Schedule(ctx, cfg.RefreshCron)
	if err != nil {
		return err
	}
	defer refresher.Stop()

	nc, err := cfg.Navigator(cfg.Viewport())
	if err != nil {
		return err
	}
	nav, err := navigator.New(nc)
	if err != nil {
		return err
	}
	session := web.NewSession(nav, cfg.Thresholds(),
		frame.WithFPS(cfg.Frame.FPS),
		frame.WithMaxDelta(cfg.Frame.MaxDelta),
	)
	go func() {
		if err := session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			appLog.Error("frame loop stopped", err)
		}
	}()

	if cfg.Capture.Cron != "" {
		c, err := scheduleCapture(ctx, cfg)
		if err != nil {
			return err
		}
		defer c.Stop()
	}

	srv := web.NewServer(cfg, session, st)
	err = web.Serve(ctx, cfg, srv.Handler())
	appLog.Info("daycanvas exiting")
	return err
}

// scheduleCapture screenshots the server's own /day.svg on cfg.Capture.Cron.
func scheduleCapture(ctx context.Context, cfg *config.Config) (*cron.Cron, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	opts := capture.Options{
		URL:    selfURL(cfg) + "/day.svg",
		Output: cfg.Capture.Output,
		Width:  cfg.Capture.Width,
		Height: cfg.Capture.Height,
	}
	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(cfg.Capture.Cron, func() {
		if err := capture.PNG(ctx, opts); err != nil {
			appLog.Error("scheduled capture failed", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("capture cron %q: %w", cfg.Capture.Cron, err)
	}
	c.Start()
	return c, nil
}

// selfURL is how a local browser reaches this server, credentials included.
func selfURL(cfg *config.Config) string {
	host := cfg.Listen
	if strings.HasPrefix(host, ":") || strings.HasPrefix(host, "0.0.0.0:") {
		host = "127.0.0.1:" + host[strings.LastIndex(host, ":")+1:]
	}
	auth := ""
	if ba := cfg.BasicAuth; ba != nil && ba.Username != "" && ba.Password != "" {
		auth = ba.Username + ":" + ba.Password + "@"
	}
	return "http://" + auth + host
}
