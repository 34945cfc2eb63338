// Package httpapi exposes the thread client over HTTP. It is deliberately
// thin glue: JSON in, client call, JSON out. Authentication mechanics belong
// to the ContextResolver supplied by the embedding application.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	threads "github.com/pressw-llc/threads-go"
)

// ContextResolver derives the caller's UserContext from a request, typically
// from a session or token the surrounding application has already verified.
type ContextResolver func(r *http.Request) (threads.UserContext, error)

// Options configure the handler.
type Options struct {
	// AllowedOrigins for CORS. Defaults to ["*"].
	AllowedOrigins []string

	// Logger for request errors. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewHandler mounts the thread routes on a chi router.
func NewHandler(client *threads.Client, resolve ContextResolver, opts Options) (http.Handler, error) {
	if client == nil {
		return nil, threads.NewConfigurationError("client is required", nil)
	}
	if resolve == nil {
		return nil, threads.NewConfigurationError("context resolver is required", nil)
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	h := &handler{client: client, resolve: resolve, logger: opts.Logger}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/threads", h.createThread)
	r.Get("/threads", h.listThreads)
	r.Get("/threads/{id}", h.getThread)
	r.Patch("/threads/{id}", h.updateThread)
	r.Delete("/threads/{id}", h.deleteThread)

	return r, nil
}

type handler struct {
	client  *threads.Client
	resolve ContextResolver
	logger  *slog.Logger
}

func (h *handler) createThread(w http.ResponseWriter, r *http.Request) {
	uc, ok := h.userContext(w, r)
	if !ok {
		return
	}

	var opts threads.CreateThreadOptions
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	thread, err := h.client.CreateThread(r.Context(), uc, opts)
	if err != nil {
		h.respondClientError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, thread)
}

func (h *handler) getThread(w http.ResponseWriter, r *http.Request) {
	uc, ok := h.userContext(w, r)
	if !ok {
		return
	}

	thread, err := h.client.GetThread(r.Context(), uc, chi.URLParam(r, "id"))
	if err != nil {
		h.respondClientError(w, err)
		return
	}
	if thread == nil {
		respondError(w, http.StatusNotFound, threads.ErrNotFoundOrDenied.Error())
		return
	}

	respondJSON(w, http.StatusOK, thread)
}

func (h *handler) listThreads(w http.ResponseWriter, r *http.Request) {
	uc, ok := h.userContext(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	opts := threads.ListThreadsOptions{
		OrderBy:        q.Get("orderBy"),
		OrderDirection: threads.SortDirection(q.Get("orderDirection")),
		Search:         q.Get("search"),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Offset = n
		}
	}

	list, err := h.client.ListThreads(r.Context(), uc, opts)
	if err != nil {
		h.respondClientError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, list)
}

func (h *handler) updateThread(w http.ResponseWriter, r *http.Request) {
	uc, ok := h.userContext(w, r)
	if !ok {
		return
	}

	var updates threads.UpdateThreadOptions
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	thread, err := h.client.UpdateThread(r.Context(), uc, chi.URLParam(r, "id"), updates)
	if err != nil {
		h.respondClientError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, thread)
}

func (h *handler) deleteThread(w http.ResponseWriter, r *http.Request) {
	uc, ok := h.userContext(w, r)
	if !ok {
		return
	}

	if err := h.client.DeleteThread(r.Context(), uc, chi.URLParam(r, "id")); err != nil {
		h.respondClientError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *handler) userContext(w http.ResponseWriter, r *http.Request) (threads.UserContext, bool) {
	uc, err := h.resolve(r)
	if err != nil || uc.UserID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return threads.UserContext{}, false
	}
	return uc, true
}

func (h *handler) respondClientError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, threads.ErrNotFoundOrDenied):
		respondError(w, http.StatusNotFound, err.Error())
	case threads.IsValidation(err):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("thread request failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
