package routine

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-streak-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-streak-go/internal/facescore"
	scanentity "github.com/ovaphlow/pitchfork/service-streak-go/internal/facescore/entity"
	"github.com/ovaphlow/pitchfork/service-streak-go/pkg/database"
)

var errBadRequest = errors.New("bad request")

// Handler exposes the routine service over HTTP. Every method expects the
// auth middleware to have set the user ID.
type Handler struct {
	svc      *Service
	validate *validator.Validate
	logger   *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, validate: validator.New(validator.WithRequiredStructEnabled()), logger: logger}
}

type freezePurchase struct {
	Count int `json:"count" validate:"required,min=1,max=100"`
}

// scanRequest carries either aspect_ratio (with an optional jawline_proxy)
// or a face bounding box.
type scanRequest struct {
	Symmetry     *float64 `json:"symmetry" validate:"required,gte=0,lte=1"`
	AspectRatio  *float64 `json:"aspect_ratio" validate:"omitempty,gt=0"`
	JawlineProxy *float64 `json:"jawline_proxy" validate:"omitempty,gte=0,lte=1"`
	BoxWidth     *float64 `json:"box_width" validate:"omitempty,gt=0"`
	BoxHeight    *float64 `json:"box_height" validate:"omitempty,gt=0"`
}

func (r scanRequest) metrics() (scanentity.FaceMetrics, error) {
	switch {
	case r.AspectRatio != nil:
		m := scanentity.FaceMetrics{
			Symmetry:          *r.Symmetry,
			AspectRatio:       *r.AspectRatio,
			JawlineAngleProxy: facescore.JawlineProxy(*r.AspectRatio),
		}
		if r.JawlineProxy != nil {
			m.JawlineAngleProxy = *r.JawlineProxy
		}
		return m, nil
	case r.BoxWidth != nil && r.BoxHeight != nil:
		return facescore.MetricsFromBox(*r.Symmetry, *r.BoxWidth, *r.BoxHeight), nil
	default:
		return scanentity.FaceMetrics{}, errors.Join(errBadRequest, errors.New("aspect_ratio or box_width and box_height required"))
	}
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Status(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	st, counted, err := h.svc.CompleteRoutine(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"state": st, "counted": counted})
}

func (h *Handler) Freeze(w http.ResponseWriter, r *http.Request) {
	applied, err := h.svc.UseFreeze(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"applied": applied})
}

func (h *Handler) ResetStreak(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.ResetStreak(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handler) AddFreezes(w http.ResponseWriter, r *http.Request) {
	var in freezePurchase
	if err := h.decode(w, r, &in); err != nil {
		h.writeError(w, err)
		return
	}
	n, err := h.svc.AddFreezes(r.Context(), auth.UserID(r.Context()), in.Count)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"freezes": n})
}

func (h *Handler) RecordScan(w http.ResponseWriter, r *http.Request) {
	var in scanRequest
	if err := h.decode(w, r, &in); err != nil {
		h.writeError(w, err)
		return
	}
	m, err := in.metrics()
	if err != nil {
		h.writeError(w, err)
		return
	}
	res, err := h.svc.RecordScan(r.Context(), auth.UserID(r.Context()), m)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) ListScans(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListScans(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) ResetScans(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ResetScans(r.Context(), auth.UserID(r.Context())); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ResetAll(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Reset(r.Context(), auth.UserID(r.Context())); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Join(errBadRequest, err)
	}
	if err := h.validate.Struct(dst); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return nil
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBadRequest):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrScanLimitReached):
		http.Error(w, err.Error(), http.StatusPaymentRequired)
	case errors.Is(err, database.ErrPersistenceUnavailable):
		h.logger.Warnw("store unavailable", "err", err)
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	default:
		h.logger.Errorw("request failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
