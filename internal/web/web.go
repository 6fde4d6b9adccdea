package web

import (
	"bytes"
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"eventplanner/internal/config"
	"eventplanner/internal/dates"
	"eventplanner/internal/export"
	"eventplanner/internal/grid"
	appLog "eventplanner/internal/log"
	"eventplanner/internal/model"
	"eventplanner/internal/planner"
	"eventplanner/internal/records"
)

// maxGridDays caps /api/grid so a huge ?days= cannot blow up the response.
const maxGridDays = 366

// Server provides the planner HTTP API on top of a planner.Service.
type Server struct {
	cfg *config.Config
	svc *planner.Service
	mux *http.ServeMux

	// /api/grid is rebuilt when the state, the requested window or the
	// current minute changes.
	gridMu    sync.RWMutex
	gridCache *gridCache
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, svc *planner.Service) *Server {
	s := &Server{
		cfg: cfg,
		svc: svc,
		mux: http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured. Empty
// credentials leave it disabled.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Planner", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Serve listens on cfg.Listen until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	appLog.Info("HTTP server stopped")
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/events", s.handleEvents)
	s.mux.HandleFunc("/api/grid", s.handleGrid)
	s.mux.HandleFunc("/api/state", s.handleState)
	s.mux.HandleFunc("/api/refresh", s.handleRefresh)
	s.mux.HandleFunc("/api/select", s.handleSelect)
	s.mux.HandleFunc("/api/export.ics", s.handleExport(export.FormatICS))
	s.mux.HandleFunc("/api/export.csv", s.handleExport(export.FormatCSV))
	s.mux.HandleFunc("/api/export.json", s.handleExport(export.FormatJSON))
	s.mux.HandleFunc("/grid.txt", s.handleGridText)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// eventDTO is a JSON-friendly view of a record with its countdown.
type eventDTO struct {
	model.Event
	Category    string           `json:"category"`
	Subcategory string           `json:"subcategory"`
	Countdown   *model.Countdown `json:"countdown,omitempty"`
}

func (s *Server) toDTO(e model.Event, now time.Time) eventDTO {
	key := model.BucketKeyOf(e)
	dto := eventDTO{Event: e, Category: key.Category, Subcategory: key.Subcategory}

	// Gaps count down to the event they precede.
	target := e
	if e.IsGap {
		target = model.Event{Date: e.NextDate, Time: e.Time}
	}
	if start, err := model.StartTime(target, s.svc.Location()); err == nil {
		cd := model.CountdownTo(now, start)
		dto.Countdown = &cd
	}
	return dto
}

func (s *Server) toDTOs(list []model.Event, now time.Time) []eventDTO {
	out := make([]eventDTO, 0, len(list))
	for _, e := range list {
		out = append(out, s.toDTO(e, now))
	}
	return out
}

// eventsResponse is the JSON response shape for /api/events.
type eventsResponse struct {
	Events          []eventDTO      `json:"events"`
	Today           string          `json:"today"`
	Outcome         planner.Outcome `json:"outcome"`
	DisplayTimeZone string          `json:"display_timezone"`
}

// handleEvents returns the canonical events, or every record with ?gaps=1.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	st := s.svc.Snapshot()
	list := st.Events
	if parseBool(r.URL.Query().Get("gaps")) {
		list = st.Records
	}
	writeJSON(w, http.StatusOK, eventsResponse{
		Events:          s.toDTOs(list, s.svc.Now()),
		Today:           dates.FormatISO(st.Today),
		Outcome:         st.Outcome,
		DisplayTimeZone: s.svc.Location().String(),
	})
}

// gridResponse is the JSON response shape for /api/grid.
type gridResponse struct {
	Start string    `json:"start"`
	Days  int       `json:"days"`
	Dates []string  `json:"dates"`
	Rows  []gridRow `json:"rows"`
}

type gridRow struct {
	Category    string                `json:"category"`
	Subcategory string                `json:"subcategory"`
	Cells       map[string][]eventDTO `json:"cells"`
}

type gridCache struct {
	index  *grid.Index
	win    grid.Window
	minute time.Time
	resp   gridResponse
}

// handleGrid returns the grid for the state's window.
//
// GET /api/grid?days=45
//   - days: limit the window to this many days (default: the whole window)
func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	st := s.svc.Snapshot()
	days := parseIntDefault(r.URL.Query().Get("days"), 0)
	if days > maxGridDays {
		days = maxGridDays
	}
	win := st.Window.Limit(days)
	if win.Days > maxGridDays {
		win.Days = maxGridDays
	}

	now := s.svc.Now()
	minute := now.Truncate(time.Minute)

	s.gridMu.RLock()
	gc := s.gridCache
	s.gridMu.RUnlock()
	if gc != nil && gc.index == st.Index && gc.win == win && gc.minute.Equal(minute) {
		writeJSON(w, http.StatusOK, gc.resp)
		return
	}

	resp := gridResponse{
		Start: dates.FormatISO(win.Start),
		Days:  win.Days,
		Dates: make([]string, 0, win.Days),
		Rows:  []gridRow{},
	}
	for _, d := range win.Dates() {
		resp.Dates = append(resp.Dates, dates.FormatISO(d))
	}
	for _, key := range st.Index.Rows() {
		row := gridRow{
			Category:    key.Category,
			Subcategory: key.Subcategory,
			Cells:       make(map[string][]eventDTO),
		}
		for _, d := range resp.Dates {
			if recs := st.Index.CellByKey(key, d); len(recs) > 0 {
				row.Cells[d] = s.toDTOs(recs, now)
			}
		}
		resp.Rows = append(resp.Rows, row)
	}

	s.gridMu.Lock()
	s.gridCache = &gridCache{index: st.Index, win: win, minute: minute, resp: resp}
	s.gridMu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGridText(w http.ResponseWriter, r *http.Request) {
	st := s.svc.Snapshot()
	width := parseIntDefault(r.URL.Query().Get("width"), 160)
	days := parseIntDefault(r.URL.Query().Get("days"), grid.DefaultDays)
	if days > maxGridDays {
		days = maxGridDays
	}

	var buf bytes.Buffer
	if err := grid.Render(&buf, st.Index, st.Window.Limit(days), width); err != nil {
		appLog.Error("grid render failed", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// stateResponse is the JSON response shape for /api/state.
type stateResponse struct {
	Outcome     planner.Outcome `json:"outcome"`
	Error       string          `json:"error,omitempty"`
	Stats       records.Stats   `json:"stats"`
	Today       string          `json:"today"`
	Events      int             `json:"events"`
	Records     int             `json:"records"`
	Selected    *eventDTO       `json:"selected,omitempty"`
	LastRefresh *time.Time      `json:"last_refresh,omitempty"`
	FromCache   bool            `json:"from_cache"`
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	st := s.svc.Snapshot()
	last, at := s.svc.LastRefresh()

	resp := stateResponse{
		Outcome:   st.Outcome,
		Error:     st.Err,
		Stats:     st.Stats,
		Today:     dates.FormatISO(st.Today),
		Events:    len(st.Events),
		Records:   len(st.Records),
		FromCache: last.FromCache,
	}
	if !at.IsZero() {
		resp.LastRefresh = &at
	}
	if sel, ok := st.SelectedRecord(); ok {
		dto := s.toDTO(sel, s.svc.Now())
		resp.Selected = &dto
	}
	writeJSON(w, http.StatusOK, resp)
}

type refreshResponse struct {
	Outcome    planner.Outcome `json:"outcome"`
	Error      string          `json:"error,omitempty"`
	Stats      records.Stats   `json:"stats"`
	DurationMs int64           `json:"duration_ms"`
}

// handleRefresh runs one ingestion cycle synchronously.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "use POST")
		return
	}
	res := s.svc.Refresh(r.Context())
	resp := refreshResponse{
		Outcome:    res.Outcome,
		Stats:      res.Stats,
		DurationMs: res.Duration.Milliseconds(),
	}
	if res.Err != nil {
		resp.Error = res.Err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSelect selects a record by id; an empty id clears the selection.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "use POST")
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		s.svc.Dispatch(planner.ClearSelection{})
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if !s.svc.Select(id) {
		writeError(w, http.StatusNotFound, "unknown id")
		return
	}
	st := s.svc.Snapshot()
	sel, _ := st.SelectedRecord()
	writeJSON(w, http.StatusOK, s.toDTO(sel, s.svc.Now()))
}

func (s *Server) handleExport(f export.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := s.svc.Snapshot()
		includeGaps := s.cfg != nil && s.cfg.Export.IncludeGaps
		if v := r.URL.Query().Get("gaps"); v != "" {
			includeGaps = parseBool(v)
		}
		list := st.Events
		if includeGaps {
			list = st.Records
		}

		var buf bytes.Buffer
		err := export.Write(&buf, f, list, export.Options{
			IncludeGaps: includeGaps,
			Location:    s.svc.Location(),
			Now:         s.svc.Now(),
		})
		if err != nil {
			appLog.Error("export failed", err, "format", string(f))
			writeError(w, http.StatusInternalServerError, "export failed")
			return
		}
		w.Header().Set("Content-Type", f.ContentType())
		w.Header().Set("Content-Disposition", `attachment; filename="planner.`+string(f)+`"`)
		_, _ = w.Write(buf.Bytes())
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		appLog.Error("failed to encode JSON response", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
