package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"daycanvas/internal/capture"
	"daycanvas/internal/config"
	appLog "daycanvas/internal/log"
	"daycanvas/internal/navigator"
	"daycanvas/internal/render"
)

type previewFlags struct {
	date   string
	input  string
	output string
	png    bool
}

func newPreviewCmd(a *app) *cobra.Command {
	var f previewFlags
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render one day to SVG, or to PNG through headless Chromium",
		Example: `  daycanvas preview --date 2025-03-10 -o day.svg
  daycanvas preview --input day.yaml --png -o day.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.load()
			if err != nil {
				return err
			}
			svg, err := a.previewSVG(cmd.Context(), cfg, f, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if !f.png {
				if f.output == "" || f.output == "-" {
					_, err := cmd.OutOrStdout().Write(svg)
					return err
				}
				return writeFile(f.output, svg)
			}
			out := f.output
			if out == "" || out == "-" {
				out = cfg.Capture.Output
			}
			return screenshot(cmd.Context(), cfg, svg, out)
		},
	}
	cmd.Flags().StringVar(&f.date, "date", "", "Day to render, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&f.input, "input", "", "Entries file instead of the configured calendars")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output path (SVG default stdout, PNG default capture.output)")
	cmd.Flags().BoolVar(&f.png, "png", false, "Screenshot the SVG with headless Chromium")
	return cmd
}

func (a *app) previewSVG(ctx context.Context, cfg *config.Config, f previewFlags, stdin io.Reader) ([]byte, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	date, err := parseDate(f.date, loc)
	if err != nil {
		return nil, err
	}

	var days render.DayProvider
	if f.input != "" {
		df, err := readEntries(f.input, stdin)
		if err != nil {
			return nil, err
		}
		for _, w := range df.Warnings {
			appLog.Warn("preview: entry skipped", "reason", w.String())
		}
		days = render.Fixed(df.Intervals)
	} else {
		st, err := a.store(cfg)
		if err != nil {
			return nil, err
		}
		if err := st.Refresh(ctx); err != nil {
			appLog.Warn("refresh incomplete, rendering what loaded", "err", err.Error())
		}
		days = st
	}

	vp := cfg.Viewport()
	vp.Width, vp.Height = float64(cfg.Capture.Width), float64(cfg.Capture.Height)
	nc, err := cfg.Navigator(vp)
	if err != nil {
		return nil, err
	}
	nav, err := navigator.New(nc, navigator.WithAnchor(date))
	if err != nil {
		return nil, err
	}
	nav.NavigateToDate(date, false)

	var buf bytes.Buffer
	if err := render.WriteSVG(&buf, render.Build(nav, days, cfg.PlaceOptions())); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// screenshot serves svg on a loopback port just long enough for Chromium to
// load it.
func screenshot(ctx context.Context, cfg *config.Config, svg []byte, out string) error {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("preview listener: %w", err)
	}
	srv := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "image/svg+xml")
			_, _ = w.Write(svg)
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("preview server failed", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	return capture.PNG(ctx, capture.Options{
		URL:    "http://" + ln.Addr().String() + "/day.svg",
		Output: out,
		Width:  cfg.Capture.Width,
		Height: cfg.Capture.Height,
	})
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
