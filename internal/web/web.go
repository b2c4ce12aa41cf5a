package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"

	"anchorcal/internal/config"
	"anchorcal/internal/conflict"
	"anchorcal/internal/habit"
	"anchorcal/internal/ics"
	appLog "anchorcal/internal/log"
	"anchorcal/internal/model"
	"anchorcal/internal/planner"
	"anchorcal/internal/reminder"
	"anchorcal/internal/theme"
	"anchorcal/internal/ui"
	"anchorcal/internal/undo"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server exposes the planner over HTTP: a JSON API, the agenda page and an
// ICS feed of the anchors.
type Server struct {
	cfg     *config.Config
	planner *planner.Service
	habits  habit.Builtin
	loc     *time.Location
	mux     *http.ServeMux
	agenda  *template.Template
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, p *planner.Service) *Server {
	loc, err := cfg.Location()
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", cfg.Timezone)
	}
	s := &Server{
		cfg:     cfg,
		planner: p,
		habits:  habit.DefaultCatalog(),
		loc:     loc,
		mux:     http.NewServeMux(),
		agenda:  template.Must(template.New("agenda.html").Funcs(templateFuncs).ParseFS(templateFS, "templates/agenda.html")),
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

// ListenAndServe serves on cfg.Listen until ctx is canceled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
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
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty credentials disable auth.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
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
			w.Header().Set("WWW-Authenticate", `Basic realm="anchorcal", charset="UTF-8"`)
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

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/state", s.handleState)
	s.mux.HandleFunc("GET /api/reminders/active", s.handleActive)
	s.mux.HandleFunc("GET /api/theme", s.handleTheme)

	s.mux.HandleFunc("POST /api/onboarding", s.handleOnboarding)
	s.mux.HandleFunc("POST /api/anchors", s.handleAddAnchor)
	s.mux.HandleFunc("POST /api/anchors/{id}/duplicate", s.handleDuplicateAnchor)
	s.mux.HandleFunc("DELETE /api/anchors/{id}", s.handleDeleteAnchor)
	s.mux.HandleFunc("POST /api/anchors/{id}/drop", s.handleDropAnchor)
	s.mux.HandleFunc("POST /api/conflict/resolve", s.handleResolveConflict)
	s.mux.HandleFunc("DELETE /api/conflict", s.handleCancelConflict)

	s.mux.HandleFunc("POST /api/reminders", s.handleAddReminder)
	s.mux.HandleFunc("POST /api/reminders/parse", s.handleParseReminder)
	s.mux.HandleFunc("POST /api/reminders/{id}/action", s.handleReminderAction)

	s.mux.HandleFunc("PUT /api/dnd/{day}", s.handleSetDND)
	s.mux.HandleFunc("POST /api/dnd/{day}/apply-all", s.handleApplyDNDToAll)
	s.mux.HandleFunc("POST /api/pause", s.handlePause)
	s.mux.HandleFunc("DELETE /api/pause", s.handleResume)

	s.mux.HandleFunc("GET /api/habits/suggestion", s.handleHabitSuggestion)
	s.mux.HandleFunc("POST /api/habits/stack", s.handleStackHabit)

	s.mux.HandleFunc("GET /api/history", s.handleHistory)
	s.mux.HandleFunc("POST /api/undo", s.handleUndo)

	s.mux.HandleFunc("GET /api/occurrences", s.handleOccurrences)
	s.mux.HandleFunc("GET /calendar.ics", s.handleCalendarICS)
	s.mux.HandleFunc("GET /agenda", s.handleAgenda)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type stateResponse struct {
	model.State
	PendingConflict *conflict.Conflict `json:"pendingConflict,omitempty"`
	Theme           model.Theme        `json:"theme"`
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, stateResponse{
		State:           s.planner.Snapshot(),
		PendingConflict: s.planner.PendingConflict(),
		Theme:           s.planner.Theme(nil),
	})
}

func (s *Server) handleActive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.planner.ActiveReminders())
}

// handleTheme selects the theme, optionally for an in-progress chunk.
//
// GET /api/theme?chunk_energy=Admin&chunk_complete=false
func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var chunk *model.Chunk
	if e := q.Get("chunk_energy"); e != "" {
		done, _ := strconv.ParseBool(q.Get("chunk_complete"))
		chunk = &model.Chunk{EnergyTag: model.EnergyTag(e), IsComplete: done}
	}
	writeJSON(w, http.StatusOK, map[string]model.Theme{"theme": s.planner.Theme(chunk)})
}

func (s *Server) handleOnboarding(w http.ResponseWriter, r *http.Request) {
	o := planner.DefaultOnboarding()
	if r.ContentLength != 0 {
		if !decodeBody(w, r, &o) {
			return
		}
	}
	if err := s.planner.Onboard(r.Context(), o); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.planner.Snapshot())
}

func (s *Server) handleAddAnchor(w http.ResponseWriter, r *http.Request) {
	var req planner.NewAnchor
	if !decodeBody(w, r, &req) {
		return
	}
	created, err := s.planner.AddAnchor(r.Context(), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDuplicateAnchor(w http.ResponseWriter, r *http.Request) {
	dup, err := s.planner.DuplicateAnchor(r.Context(), r.PathValue("id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dup)
}

func (s *Server) handleDeleteAnchor(w http.ResponseWriter, r *http.Request) {
	if err := s.planner.DeleteAnchor(r.Context(), r.PathValue("id")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDropAnchor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Day model.Day `json:"day"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	out, err := s.planner.DropAnchor(r.Context(), r.PathValue("id"), req.Day)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleResolveConflict(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Resolution conflict.Resolution `json:"resolution"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	desc, err := s.planner.ResolveConflict(r.Context(), req.Resolution)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"description": desc})
}

func (s *Server) handleCancelConflict(w http.ResponseWriter, _ *http.Request) {
	if err := s.planner.CancelConflict(); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddReminder(w http.ResponseWriter, r *http.Request) {
	var req planner.NewReminder
	if !decodeBody(w, r, &req) {
		return
	}
	rem, err := s.planner.AddReminder(r.Context(), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rem)
}

func (s *Server) handleParseReminder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	created, err := s.planner.AddReminderFromText(r.Context(), req.Text)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type actionResponse struct {
	Reminder model.SmartReminder `json:"reminder"`
	Message  string              `json:"message,omitempty"`
}

func (s *Server) handleReminderAction(w http.ResponseWriter, r *http.Request) {
	var a reminder.Action
	if !decodeBody(w, r, &a) {
		return
	}
	rem, msg, err := s.planner.ReminderAction(r.Context(), r.PathValue("id"), a)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{Reminder: rem, Message: msg})
}

func (s *Server) handleSetDND(w http.ResponseWriter, r *http.Request) {
	day, err := model.ParseDay(r.PathValue("day"))
	if err != nil {
		writeErr(w, &model.ValidationError{Field: "day", Message: err.Error()})
		return
	}
	var req struct {
		StartTime string `json:"startTime"`
		EndTime   string `json:"endTime"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.planner.SetDND(r.Context(), day, req.StartTime, req.EndTime); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.planner.Snapshot().DND)
}

func (s *Server) handleApplyDNDToAll(w http.ResponseWriter, r *http.Request) {
	day, err := model.ParseDay(r.PathValue("day"))
	if err != nil {
		writeErr(w, &model.ValidationError{Field: "day", Message: err.Error()})
		return
	}
	if _, err := s.planner.ApplyDNDToAll(r.Context(), day); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.planner.Snapshot().DND)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Until time.Time `json:"until"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.planner.Pause(r.Context(), req.Until); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	if err := s.planner.Resume(r.Context()); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type suggestionResponse struct {
	Eligible   bool              `json:"eligible"`
	Suggestion *habit.Suggestion `json:"suggestion,omitempty"`
}

func (s *Server) handleHabitSuggestion(w http.ResponseWriter, _ *http.Request) {
	sug, ok := s.planner.HabitSuggestion()
	if !ok {
		writeJSON(w, http.StatusOK, suggestionResponse{})
		return
	}
	writeJSON(w, http.StatusOK, suggestionResponse{Eligible: true, Suggestion: &sug})
}

func (s *Server) handleStackHabit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AnchorID string `json:"anchorId"`
		HabitID  string `json:"habitId"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	h, ok := s.habits.Find(req.HabitID)
	if !ok {
		writeErr(w, &model.NotFoundError{Kind: "habit", ID: req.HabitID})
		return
	}
	rem, err := s.planner.StackHabit(r.Context(), req.AnchorID, h)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rem)
}

func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.planner.History())
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	e, err := s.planner.Undo(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// occurrencesResponse is the JSON response shape for /api/occurrences.
type occurrencesResponse struct {
	Occurrences     []model.Occurrence `json:"occurrences"`
	RangeStart      time.Time          `json:"range_start"`
	RangeEnd        time.Time          `json:"range_end"`
	DisplayTimeZone string             `json:"display_timezone"`
}

// handleOccurrences expands the weekly anchors into dated instances.
//
// GET /api/occurrences?days=7&backfill=0
func (s *Server) handleOccurrences(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	days := parseIntDefault(q.Get("days"), 7)
	if days <= 0 {
		days = 7
	}
	backfill := parseIntDefault(q.Get("backfill"), 0)
	if backfill < 0 {
		backfill = 0
	}

	now := s.planner.Now().In(s.loc)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	rangeStart := midnight.AddDate(0, 0, -backfill)
	rangeEnd := midnight.AddDate(0, 0, days)

	occ, err := ics.ExpandAnchors(s.planner.Snapshot().Anchors, ics.ExpandConfig{
		Location:   s.loc,
		RangeStart: rangeStart,
		RangeEnd:   rangeEnd,
	})
	if err != nil {
		appLog.Error("api occurrences: expand failed", err)
		writeError(w, http.StatusInternalServerError, "failed to expand anchors")
		return
	}
	writeJSON(w, http.StatusOK, occurrencesResponse{
		Occurrences:     occ,
		RangeStart:      rangeStart,
		RangeEnd:        rangeEnd,
		DisplayTimeZone: s.loc.String(),
	})
}

func (s *Server) handleCalendarICS(w http.ResponseWriter, _ *http.Request) {
	body := ics.Export(s.planner.Snapshot().Anchors, s.planner.Now(), s.loc)
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="anchors.ics"`)
	_, _ = w.Write([]byte(body))
}

type agendaView struct {
	Now       time.Time
	Day       model.Day
	Theme     model.Theme
	Palette   ui.Palette
	Anchors   []agendaAnchor
	Reminders []reminder.Scheduled
	Paused    bool
	History   []undo.Entry
}

type agendaAnchor struct {
	model.ScheduleEvent
	Running bool
}

// handleAgenda renders today's page. The root element carries
// data-ready="true" once rendered, which the PNG snapshot waits for.
func (s *Server) handleAgenda(w http.ResponseWriter, _ *http.Request) {
	st := s.planner.Snapshot()
	now := s.planner.Now().In(s.loc)
	th := s.planner.Theme(nil)

	running := make(map[string]bool)
	for _, a := range theme.RunningAt(st.Anchors, now) {
		running[a.ID] = true
	}
	view := agendaView{
		Now:       now,
		Day:       model.DayOf(now),
		Theme:     th,
		Palette:   ui.PaletteFor(th),
		Reminders: s.planner.ActiveReminders(),
		Paused:    reminder.Paused(st.PauseUntil, now),
		History:   s.planner.History(),
	}
	for _, a := range st.Anchors {
		if a.Day == view.Day {
			view.Anchors = append(view.Anchors, agendaAnchor{ScheduleEvent: a, Running: running[a.ID]})
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.agenda.Execute(w, view); err != nil {
		appLog.Error("agenda render failed", err)
	}
}

var templateFuncs = template.FuncMap{
	"clock": func(t time.Time) string { return t.Format("15:04") },
	"color": func(c lipgloss.Color) template.CSS { return template.CSS(string(c)) },
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// writeErr maps domain errors onto status codes.
func writeErr(w http.ResponseWriter, err error) {
	var (
		ve *model.ValidationError
		nf *model.NotFoundError
	)
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &nf):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, conflict.ErrSameDay),
		errors.Is(err, conflict.ErrWrongResolution),
		errors.Is(err, conflict.ErrCrossesMidnight),
		errors.Is(err, planner.ErrNoConflict),
		errors.Is(err, reminder.ErrTerminal),
		errors.Is(err, reminder.ErrInvalidAction),
		errors.Is(err, undo.ErrEmpty):
		writeError(w, http.StatusConflict, err.Error())
	default:
		appLog.Error("api request failed", err)
		writeError(w, http.StatusInternalServerError, err.Error())
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

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
