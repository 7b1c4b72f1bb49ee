package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"daycanvas/internal/config"
	"daycanvas/internal/gesture"
	"daycanvas/internal/layout"
	appLog "daycanvas/internal/log"
	"daycanvas/internal/model"
	"daycanvas/internal/navigator"
	"daycanvas/internal/render"
	"daycanvas/internal/viewport"
)

// Refresher is implemented by day providers that can re-fetch on demand.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Server exposes the canvas over HTTP: state and navigation for a browser
// client, layout JSON, an SVG render and the last PNG preview.
type Server struct {
	cfg     *config.Config
	mux     *http.ServeMux
	session *Session
	days    render.DayProvider
	now     func() time.Time
}

//go:embed all:static
var embeddedStatic embed.FS

func NewServer(cfg *config.Config, session *Session, days render.DayProvider) *Server {
	s := &Server{
		cfg:     cfg,
		mux:     http.NewServeMux(),
		session: session,
		days:    days,
		now:     time.Now,
	}
	s.registerRoutes()
	return s
}

// Handler returns the mux wrapped in request logging and, when configured,
// basic auth.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	if creds := s.cfg.BasicAuth; creds != nil && creds.Username != "" && creds.Password != "" {
		h = requireAuth(*creds, h)
	}
	return requestLog(h)
}

// requireAuth guards everything except /health.
func requireAuth(creds config.BasicAuthConfig, next http.Handler) http.Handler {
	wantUser, wantPass := []byte(creds.Username), []byte(creds.Password)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			user, pass, ok := r.BasicAuth()
			// ConstantTimeCompare already returns 0 on a length mismatch.
			if !ok || subtle.ConstantTimeCompare([]byte(user), wantUser)&subtle.ConstantTimeCompare([]byte(pass), wantPass) != 1 {
				w.Header().Set("WWW-Authenticate", `Basic realm="daycanvas"`)
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// requestLog tags each request with an X-Request-ID (kept if the client
// sent one) and logs it on completion.
func requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sw, r)
		appLog.Debug("http request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start).String(),
		)
	})
}

// Serve listens on cfg.Listen until ctx is done, then shuts down
// gracefully.
func Serve(ctx context.Context, cfg *config.Config, h http.Handler) error {
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/state", s.handleState)
	s.mux.HandleFunc("POST /api/navigate", s.handleNavigate)
	s.mux.HandleFunc("POST /api/gesture", s.handleGesture)
	s.mux.HandleFunc("POST /api/viewport", s.handleViewport)
	s.mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	s.mux.HandleFunc("GET /api/day", s.handleDay)
	s.mux.HandleFunc("GET /api/scene", s.handleScene)
	s.mux.HandleFunc("GET /day.svg", s.handleSVG)
	s.mux.HandleFunc("GET /preview.png", s.handlePreview)
	s.mux.Handle("/", client())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type stateResponse struct {
	navigator.Snapshot
	Version uint64 `json:"version"`
}

func (s *Server) state() stateResponse {
	snap, v := s.session.Snapshot()
	return stateResponse{Snapshot: snap, Version: v}
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.state())
}

// navigateRequest is navigator.Request with a plain YYYY-MM-DD date.
type navigateRequest struct {
	Kind     navigator.RequestKind `json:"kind"`
	Delta    int                   `json:"delta"`
	Date     string                `json:"date"`
	Animated *bool                 `json:"animated"`
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var in navigateRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var herr error
	s.session.Do(func(n *navigator.Navigator, _ *gesture.Controller) {
		req := navigator.Request{Kind: in.Kind, Delta: in.Delta, Animated: in.Animated == nil || *in.Animated}
		if in.Date != "" {
			d, err := time.ParseInLocation(navigator.DateKeyLayout, in.Date, n.Location())
			if err != nil {
				herr = err
				return
			}
			req.Date = d
		}
		herr = n.Handle(req)
	})
	if herr != nil {
		writeError(w, http.StatusBadRequest, herr.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.state())
}

// gestureRequest is one raw input event from a browser client. T is Unix
// milliseconds; zero means "now".
type gestureRequest struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	DY   float64 `json:"dy"`
	T    int64   `json:"t"`
}

type gestureResponse struct {
	stateResponse
	Decision *gesture.Decision `json:"decision,omitempty"`
}

var errUnknownGesture = errors.New("unknown gesture type")

func (s *Server) handleGesture(w http.ResponseWriter, r *http.Request) {
	var in gestureRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	at := s.now()
	if in.T > 0 {
		at = time.UnixMilli(in.T)
	}

	var (
		dec  *gesture.Decision
		gerr error
	)
	s.session.Do(func(_ *navigator.Navigator, g *gesture.Controller) {
		var (
			d  gesture.Decision
			ok bool
		)
		switch in.Type {
		case "pointer_down":
			g.PointerDown(in.X, in.Y, at)
		case "pointer_move":
			g.PointerMove(in.X, in.Y, at)
		case "pointer_up":
			d, ok = g.PointerUp(in.X, in.Y, at)
		case "touch_start":
			g.TouchStart(in.X, in.Y, at)
		case "touch_move":
			g.TouchMove(in.X, in.Y, at)
		case "touch_end":
			d, ok = g.TouchEnd(in.X, in.Y, at)
		case "wheel":
			g.Wheel(in.DY)
		case "cancel":
			g.Cancel()
		default:
			gerr = errUnknownGesture
		}
		if ok {
			dec = &d
		}
	})
	if gerr != nil {
		writeError(w, http.StatusBadRequest, gerr.Error()+": "+in.Type)
		return
	}
	writeJSON(w, http.StatusOK, gestureResponse{stateResponse: s.state(), Decision: dec})
}

func (s *Server) handleViewport(w http.ResponseWriter, r *http.Request) {
	var vp viewport.Viewport
	if err := json.NewDecoder(r.Body).Decode(&vp); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s.session.Do(func(n *navigator.Navigator, _ *gesture.Controller) {
		n.SetViewport(vp)
	})
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	rf, ok := s.days.(Refresher)
	if !ok {
		writeError(w, http.StatusNotImplemented, "day source cannot refresh")
		return
	}
	if err := rf.Refresh(r.Context()); err != nil {
		appLog.Error("api refresh incomplete", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type dayResponse struct {
	Date      string                    `json:"date"`
	Intervals []model.LayoutInterval    `json:"intervals"`
	Warnings  []model.ValidationWarning `json:"warnings,omitempty"`
}

// handleDay returns the column layout of one day.
//
// GET /api/day?date=2025-03-12 (default: the session's current date)
func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	date, ok := s.dateParam(w, r)
	if !ok {
		return
	}
	intervals, err := s.days.Day(date)
	if err != nil {
		appLog.Error("api day failed", err, "date", navigator.DateKey(date))
		writeError(w, http.StatusInternalServerError, "failed to load day")
		return
	}
	res := layout.Compute(intervals)
	if res.Intervals == nil {
		res.Intervals = []model.LayoutInterval{}
	}
	writeJSON(w, http.StatusOK, dayResponse{
		Date:      navigator.DateKey(date),
		Intervals: res.Intervals,
		Warnings:  res.Warnings,
	})
}

func (s *Server) dateParam(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	var (
		date time.Time
		loc  *time.Location
	)
	s.session.Do(func(n *navigator.Navigator, _ *gesture.Controller) {
		date, loc = n.CurrentDate(), n.Location()
	})
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return date, true
	}
	d, err := time.ParseInLocation(navigator.DateKeyLayout, raw, loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return d, true
}

// scene renders the live session, or a resting camera on ?date= when given.
func (s *Server) scene(w http.ResponseWriter, r *http.Request) (render.Scene, bool) {
	opts := s.cfg.PlaceOptions()
	if r.URL.Query().Get("date") == "" {
		var sc render.Scene
		s.session.Do(func(n *navigator.Navigator, _ *gesture.Controller) {
			sc = render.Build(n, s.days, opts)
		})
		return sc, true
	}

	date, ok := s.dateParam(w, r)
	if !ok {
		return render.Scene{}, false
	}
	var vp viewport.Viewport
	s.session.Do(func(n *navigator.Navigator, _ *gesture.Controller) { vp = n.Viewport() })
	nc, err := s.cfg.Navigator(vp)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return render.Scene{}, false
	}
	still, err := navigator.New(nc, navigator.WithClock(s.now))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return render.Scene{}, false
	}
	still.NavigateToDate(date, false)
	return render.Build(still, s.days, opts), true
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.scene(w, r)
	if !ok {
		return
	}
	if sc.Days == nil {
		sc.Days = []render.Day{}
	}
	writeJSON(w, http.StatusOK, sc)
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.scene(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	if err := render.WriteSVG(w, sc); err != nil {
		appLog.Error("svg write failed", err)
	}
}

// handlePreview serves the last PNG written by the capture job.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, s.cfg.Capture.Output)
}

// client serves the embedded browser client. /api/* never falls through
// to it.
func client() http.Handler {
	files := http.NotFoundHandler()
	if sub, err := fs.Sub(embeddedStatic, "static"); err != nil {
		appLog.Error("web: embedded client missing", err)
	} else {
		files = http.FileServer(http.FS(sub))
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
			writeError(w, http.StatusNotFound, "no such endpoint")
			return
		}
		files.ServeHTTP(w, r)
	})
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Debug("web: response not written", "err", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}
