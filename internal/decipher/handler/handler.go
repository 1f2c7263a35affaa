// Package handler exposes the decipher service over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/decipher"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/model"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/logger"
)

const (
	defaultListLimit = 20
	maxListLimit     = 500
)

// Service is what the handler needs from *decipher.Service.
type Service interface {
	Train(ctx context.Context, req decipher.TrainRequest) (*decipher.TrainResponse, error)
	Decrypt(ctx context.Context, req decipher.DecryptRequest) (*decipher.DecryptResponse, error)
	Model(ctx context.Context, id string) (model.Model, error)
	ListModels(ctx context.Context, limit int) ([]store.ModelInfo, error)
	RecentRuns(ctx context.Context, limit int) ([]store.Run, error)
}

type Handler struct {
	svc          Service
	maxBodyBytes int64
	logger       *slog.Logger
}

func New(svc Service, maxBodyBytes int64) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 32 << 20
	}
	return &Handler{
		svc:          svc,
		maxBodyBytes: maxBodyBytes,
		logger:       slog.Default().With("component", "decipher-handler"),
	}
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/models", h.TrainModel)
	mux.HandleFunc("GET /api/v1/models", h.ListModels)
	mux.HandleFunc("GET /api/v1/models/{id}", h.GetModel)
	mux.HandleFunc("POST /api/v1/decrypt", h.Decrypt)
	mux.HandleFunc("GET /api/v1/runs", h.ListRuns)
}

// TrainModel accepts either {"corpus": "..."} as JSON or the raw corpus as
// the request body, decoded per the optional ?encoding= parameter.
func (h *Handler) TrainModel(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	var req decipher.TrainRequest
	if isJSON(r) {
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			h.writeBodyError(w, err)
			return
		}
	} else {
		text, err := corpus.Read(body, r.URL.Query().Get("encoding"))
		if err != nil {
			h.writeBodyError(w, err)
			return
		}
		req.Corpus = text
	}
	if req.Corpus == "" {
		h.writeError(w, http.StatusBadRequest, "corpus is empty")
		return
	}
	resp, err := h.svc.Train(r.Context(), req)
	if err != nil {
		h.fail(w, r, "training failed", err)
		return
	}
	status := http.StatusCreated
	if resp.Cached {
		status = http.StatusOK
	}
	h.writeJSON(w, status, resp)
}

func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.limit(w, r)
	if !ok {
		return
	}
	models, err := h.svc.ListModels(r.Context(), limit)
	if err != nil {
		h.fail(w, r, "listing models failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"models": models, "count": len(models)})
}

func (h *Handler) GetModel(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.Model(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, "loading model failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, store.ModelInfo{
		ID:        m.ID,
		Alphabet:  m.Alphabet,
		Pairs:     m.Pairs,
		TrainedAt: m.TrainedAt,
	})
}

func (h *Handler) Decrypt(w http.ResponseWriter, r *http.Request) {
	var req decipher.DecryptRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes)).Decode(&req); err != nil {
		h.writeBodyError(w, err)
		return
	}
	resp, err := h.svc.Decrypt(r.Context(), req)
	if err != nil {
		h.fail(w, r, "decrypt failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.limit(w, r)
	if !ok {
		return
	}
	runs, err := h.svc.RecentRuns(r.Context(), limit)
	if err != nil {
		h.fail(w, r, "listing runs failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"runs": runs, "count": len(runs)})
}

func (h *Handler) limit(w http.ResponseWriter, r *http.Request) (int, bool) {
	limit := defaultListLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return 0, false
		}
		limit = min(parsed, maxListLimit)
	}
	return limit, true
}

func isJSON(r *http.Request) bool {
	ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && ct == "application/json"
}

func (h *Handler) writeBodyError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		h.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
	case errors.Is(err, corpus.ErrUnknownEncoding):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, io.EOF):
		h.writeError(w, http.StatusBadRequest, "request body is empty")
	default:
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
	}
}

// fail maps err to a status. Client errors carry their message; anything
// else is logged and reported generically.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := apperrors.HTTPStatusCode(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable && status != http.StatusGatewayTimeout {
		logger.FromContext(r.Context()).Error(msg, "component", "decipher-handler", "error", err)
		h.writeError(w, status, msg)
		return
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		h.writeError(w, status, appErr.Message)
		return
	}
	h.writeError(w, status, err.Error())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
