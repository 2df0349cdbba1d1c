// Package users serves the /users CRUD API and records the outcome of every
// operation.
package users

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/cap-mahdi/TP2-devops/internal/storage"
	"github.com/cap-mahdi/TP2-devops/pkg/httputil"
	"github.com/cap-mahdi/TP2-devops/pkg/logging"
	"github.com/cap-mahdi/TP2-devops/pkg/recorder"
)

// Handler implements the users API on top of a storage.UserStore.
type Handler struct {
	store    storage.UserStore
	recorder *recorder.Recorder
	logger   *slog.Logger
	schema   *jsonschema.Schema
	maxBody  int64
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the handler logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMaxBodyBytes caps request bodies. Values <= 0 use httputil.DefaultMaxBodyBytes.
func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) { h.maxBody = n }
}

// NewHandler creates a Handler. rec may be nil.
func NewHandler(store storage.UserStore, rec *recorder.Recorder, opts ...Option) (*Handler, error) {
	if store == nil {
		return nil, errors.New("users: store is required")
	}
	schema, err := compileUserSchema()
	if err != nil {
		return nil, fmt.Errorf("users: %w", err)
	}
	h := &Handler{
		store:    store,
		recorder: rec,
		logger:   logging.Nop(),
		schema:   schema,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h, nil
}

// Register adds the users routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /users", h.handleList)
	mux.HandleFunc("POST /users", h.handleCreate)
	mux.HandleFunc("GET /users/{id}", h.handleGet)
	mux.HandleFunc("PUT /users/{id}", h.handleUpdate)
	mux.HandleFunc("DELETE /users/{id}", h.handleDelete)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	users := h.store.List()
	h.recorder.RecordOperation(recorder.OpList, recorder.OutcomeSuccess)
	httputil.WriteOK(w, users)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, recorder.OpRead)
	if !ok {
		return
	}
	user, err := h.store.Get(id)
	if err != nil {
		h.storeError(w, r, recorder.OpRead, err)
		return
	}
	h.recorder.RecordOperation(recorder.OpRead, recorder.OutcomeSuccess)
	httputil.WriteOK(w, user)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	in, ok := h.readInput(w, r, recorder.OpCreate)
	if !ok {
		return
	}
	user, err := h.store.Create(in.Name, in.Email)
	if err != nil {
		h.storeError(w, r, recorder.OpCreate, err)
		return
	}
	h.recorder.RecordOperation(recorder.OpCreate, recorder.OutcomeSuccess)
	h.logger.Debug("user created", "id", user.ID)
	httputil.WriteCreated(w, user)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, recorder.OpUpdate)
	if !ok {
		return
	}
	// a missing user is reported as 404 whatever the body holds
	if _, err := h.store.Get(id); err != nil {
		h.storeError(w, r, recorder.OpUpdate, err)
		return
	}
	in, ok := h.readInput(w, r, recorder.OpUpdate)
	if !ok {
		return
	}
	user, err := h.store.Update(id, in.Name, in.Email)
	if err != nil {
		h.storeError(w, r, recorder.OpUpdate, err)
		return
	}
	h.recorder.RecordOperation(recorder.OpUpdate, recorder.OutcomeSuccess)
	httputil.WriteOK(w, user)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, recorder.OpDelete)
	if !ok {
		return
	}
	if err := h.store.Delete(id); err != nil {
		h.storeError(w, r, recorder.OpDelete, err)
		return
	}
	h.recorder.RecordOperation(recorder.OpDelete, recorder.OutcomeSuccess)
	httputil.WriteNoContent(w)
}

// pathID parses the {id} wildcard. On failure it writes a 400 and records
// an error outcome for op.
func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, op string) (int, bool) {
	raw := r.PathValue("id")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		h.recorder.RecordOperation(op, recorder.OutcomeError)
		httputil.WriteBadRequest(w, httputil.CodeBadRequest, fmt.Sprintf("invalid user id %q", raw))
		return 0, false
	}
	return id, true
}

// readInput reads and validates the request body. On failure it writes a 400
// and records an error outcome for op.
func (h *Handler) readInput(w http.ResponseWriter, r *http.Request, op string) (Input, bool) {
	body, err := httputil.ReadBody(w, r, h.maxBody)
	if err != nil {
		h.recorder.RecordOperation(op, recorder.OutcomeError)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, http.StatusRequestEntityTooLarge, httputil.CodeBadRequest, "request body too large")
			return Input{}, false
		}
		httputil.WriteBadRequest(w, httputil.CodeBadRequest, err.Error())
		return Input{}, false
	}

	in, fieldErrs, err := decodeInput(h.schema, body)
	switch {
	case err != nil:
		h.recorder.RecordOperation(op, recorder.OutcomeError)
		if errors.Is(err, errInvalidJSON) {
			httputil.WriteBadRequest(w, httputil.CodeBadRequest, err.Error())
		} else {
			h.logger.Error("schema validation failed", "error", err, "request_id", logging.RequestID(r.Context()))
			httputil.WriteInternalError(w, httputil.CodeInternal, "validation failed unexpectedly")
		}
		return Input{}, false
	case len(fieldErrs) > 0:
		h.recorder.RecordOperation(op, recorder.OutcomeError)
		httputil.WriteErrorWithDetails(w, http.StatusBadRequest, httputil.CodeValidationFailed, "request body failed validation", fieldErrs)
		return Input{}, false
	}
	return in, true
}

// storeError maps a store failure to a response and an outcome.
func (h *Handler) storeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		h.recorder.RecordOperation(op, recorder.OutcomeNotFound)
		httputil.WriteNotFound(w, httputil.CodeNotFound, "User not found")
		return
	}
	h.recorder.RecordOperation(op, recorder.OutcomeError)
	h.logger.Error("user store failed", "operation", op, "error", err, "request_id", logging.RequestID(r.Context()))
	httputil.WriteInternalError(w, httputil.CodeInternal, "internal error")
}
