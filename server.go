package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"reminderd/pkg/reminders"
	"reminderd/pkg/scheduler"
)

type reminderResponse struct {
	reminders.Reminder
	Warning string `json:"warning,omitempty"`
}

func newReminderResponse(res scheduler.Result) reminderResponse {
	out := reminderResponse{Reminder: res.Reminder}
	if res.Warning != nil {
		out.Warning = res.Warning.Error()
	}
	return out
}

// Used to pass input to the scheduler
func (rm *Reminders) startServer(ctx context.Context, addr string) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(rm.scheduler, rm.log),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	rm.log.Info().Str("addr", "http://"+addr).Msg("Server listening")
	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		rm.log.Fatal().Err(err).Msg("Server failed")
	}
}

func newRouter(sched *scheduler.Scheduler, log zerolog.Logger) http.Handler {
	router := chi.NewRouter()
	router.Use(hlog.NewHandler(log))
	router.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Debug().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("Request")
	}))
	router.Use(middleware.Recoverer)

	h := &handlers{sched: sched}

	router.Route("/reminders", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Delete("/", h.clear)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.get)
			r.Patch("/", h.update)
			r.Delete("/", h.delete)
			r.Post("/complete", h.complete)
			r.Post("/reopen", h.reopen)
			r.Get("/occurrences", h.occurrences)
		})
	})
	router.Post("/resync", h.resync)

	return router
}

type handlers struct {
	sched *scheduler.Scheduler
}

// GET /reminders - Lists reminders, optionally filtered
func (h *handlers) list(w http.ResponseWriter, r *http.Request) {
	var (
		list []reminders.Reminder
		err  error
	)
	q := r.URL.Query()
	switch {
	case q.Get("view") == "today":
		list, err = h.sched.Today(r.Context())
	case q.Get("view") == "upcoming":
		var days int
		if v := q.Get("days"); v != "" {
			n, perr := strconv.Atoi(v)
			if perr != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, "days must be a positive integer")
				return
			}
			days = n
		}
		list, err = h.sched.Upcoming(r.Context(), days)
	case q.Get("completed") != "":
		completed, perr := strconv.ParseBool(q.Get("completed"))
		if perr != nil {
			writeError(w, http.StatusBadRequest, "completed must be true or false")
			return
		}
		list, err = h.sched.FilterCompleted(r.Context(), completed)
	default:
		list, err = h.sched.Search(r.Context(), q.Get("q"))
	}
	if err != nil {
		writeSchedulerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// POST /reminders - Creates a reminder
func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	var fields reminders.Fields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "Error parsing request body: "+err.Error())
		return
	}
	res, err := h.sched.Create(r.Context(), fields)
	if err != nil {
		writeSchedulerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newReminderResponse(res))
}

// DELETE /reminders - Removes every reminder
func (h *handlers) clear(w http.ResponseWriter, r *http.Request) {
	if err := h.sched.Clear(r.Context()); err != nil {
		writeSchedulerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) get(w http.ResponseWriter, r *http.Request) {
	rem, err := h.sched.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeSchedulerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rem)
}

// PATCH /reminders/{id} - Updates some fields of a reminder
func (h *handlers) update(w http.ResponseWriter, r *http.Request) {
	var patch reminders.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Error parsing request body: "+err.Error())
		return
	}
	res, err := h.sched.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeSchedulerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newReminderResponse(res))
}

// DELETE /reminders/{id} - Deletes a reminder
func (h *handlers) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.sched.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeSchedulerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) complete(w http.ResponseWriter, r *http.Request) {
	res, err := h.sched.Complete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeSchedulerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newReminderResponse(res))
}

func (h *handlers) reopen(w http.ResponseWriter, r *http.Request) {
	res, err := h.sched.Reopen(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeSchedulerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newReminderResponse(res))
}

// GET /reminders/{id}/occurrences?count=N - Previews the next fire times
func (h *handlers) occurrences(w http.ResponseWriter, r *http.Request) {
	count := 5
	if v := r.URL.Query().Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 100 {
			writeError(w, http.StatusBadRequest, "count must be between 1 and 100")
			return
		}
		count = n
	}
	times, err := h.sched.Occurrences(r.Context(), chi.URLParam(r, "id"), count)
	if err != nil {
		writeSchedulerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, times)
}

// POST /resync - Reconciles reminders with the pending notifications
func (h *handlers) resync(w http.ResponseWriter, r *http.Request) {
	rep, err := h.sched.Resync(r.Context())
	if err != nil {
		writeSchedulerError(w, err)
		return
	}
	warnings := make([]string, 0, len(rep.Warnings))
	for _, warn := range rep.Warnings {
		warnings = append(warnings, warn.Error())
	}
	writeJSON(w, http.StatusOK, struct {
		scheduler.Report
		Warnings []string `json:"warnings"`
	}{rep, warnings})
}

func writeSchedulerError(w http.ResponseWriter, err error) {
	var ve *reminders.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, reminders.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case scheduler.IsSoft(err):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
