// Package server exposes the credit calculator over a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/iwvelando/credit-calculator/internal/config"
	"github.com/iwvelando/credit-calculator/internal/service"
	"github.com/iwvelando/credit-calculator/pkg/constants"
	"github.com/iwvelando/credit-calculator/pkg/loans"
	"github.com/iwvelando/credit-calculator/pkg/output"
	"github.com/iwvelando/credit-calculator/pkg/validation"
	"go.uber.org/zap"
)

const calculationsPath = "/api/credit-calculations"

type handler struct {
	service        *service.CreditService
	validator      *validation.Validator
	logger         *zap.Logger
	version        string
	maxBodySize    int64
	allowedOrigins []string
	limiter        *clientLimiters
	now            func() time.Time
}

// NewHandler constructs the HTTP handler that serves the calculation API.
func NewHandler(svc *service.CreditService, cfg config.ServerConfig, logger *zap.Logger, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = constants.DefaultVersion
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	h := &handler{
		service:        svc,
		validator:      validation.New(),
		logger:         logger,
		version:        trimmedVersion,
		maxBodySize:    cfg.MaxBodySizeBytes(),
		allowedOrigins: origins,
		limiter:        newClientLimiters(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst),
		now:            time.Now,
	}

	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(h.handleNotFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(h.handleMethodNotAllowed)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/test", h.handlePing).Methods(http.MethodGet)
	api.HandleFunc("/version", h.handleVersion).Methods(http.MethodGet)

	// Real-time calculation, nothing is stored
	api.HandleFunc("/credit/calculate", h.handleCalculate).Methods(http.MethodPost)

	// Stored calculations
	api.HandleFunc("/credit-calculations", h.handleIndex).Methods(http.MethodGet)
	api.HandleFunc("/credit-calculations", h.handleStore).Methods(http.MethodPost)
	api.HandleFunc("/credit-calculations/{id:[0-9]+}", h.handleShow).Methods(http.MethodGet)
	api.HandleFunc("/credit-calculations/{id:[0-9]+}", h.handleUpdate).Methods(http.MethodPut, http.MethodPatch)
	api.HandleFunc("/credit-calculations/{id:[0-9]+}", h.handleDestroy).Methods(http.MethodDelete)
	api.HandleFunc("/credit-calculations/{id:[0-9]+}/schedule", h.handleSchedule).Methods(http.MethodGet)

	return chain(router,
		h.recoverPanics,
		h.assignRequestID,
		h.logRequests,
		h.cors,
		h.limitRate,
		h.limitBody,
	)
}

func (h *handler) handlePing(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "API is working!",
		"timestamp": h.now().UTC(),
	})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCalculate"

	var req calculateRequest
	if !h.decodeJSON(w, r, &req, op) || !h.validate(w, r, &req, op) {
		return
	}

	result, err := h.service.Calculate(r.Context(), req.loanRequest())
	if err != nil {
		h.respondServiceError(w, r, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope{Success: true, Data: result})
}

func (h *handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleIndex"

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	result, err := h.service.List(r.Context(), page)
	if err != nil {
		h.respondServiceError(w, r, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, newPageView(result, calculationsPath))
}

func (h *handler) handleStore(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleStore"

	var req storeRequest
	if !h.decodeJSON(w, r, &req, op) || !h.validate(w, r, &req, op) {
		return
	}

	record, err := h.service.Create(r.Context(), req.loanRequest(), req.metadata())
	if err != nil {
		h.respondServiceError(w, r, err, op)
		return
	}
	h.writeJSON(w, http.StatusCreated, envelope{
		Success: true,
		Data:    newRecordView(record),
		Message: "Credit calculation completed successfully",
	})
}

func (h *handler) handleShow(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleShow"

	id, ok := h.calculationID(w, r, op)
	if !ok {
		return
	}
	record, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope{Success: true, Data: newRecordView(record)})
}

func (h *handler) handleSchedule(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSchedule"

	id, ok := h.calculationID(w, r, op)
	if !ok {
		return
	}
	result, err := h.service.Schedule(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err, op)
		return
	}

	if r.URL.Query().Get("format") == constants.OutputFormatCSV {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"calculation-%d-schedule.csv\"", id))
		w.WriteHeader(http.StatusOK)
		if err := output.CsvFormat(w, result); err != nil {
			h.logger.Error("failed to write CSV response",
				zap.String("op", op),
				zap.String("request_id", requestID(r.Context())),
				zap.Error(err),
			)
		}
		return
	}
	h.writeJSON(w, http.StatusOK, envelope{Success: true, Data: result})
}

func (h *handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUpdate"

	id, ok := h.calculationID(w, r, op)
	if !ok {
		return
	}
	// A missing calculation wins over an invalid body.
	if _, err := h.service.Get(r.Context(), id); err != nil {
		h.respondServiceError(w, r, err, op)
		return
	}

	var req updateRequest
	if !h.decodeJSON(w, r, &req, op) || !h.validate(w, r, &req, op) {
		return
	}

	record, err := h.service.UpdateMetadata(r.Context(), id, req.metadata())
	if err != nil {
		h.respondServiceError(w, r, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Data:    newRecordView(record),
		Message: "Calculation updated successfully",
	})
}

func (h *handler) handleDestroy(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDestroy"

	id, ok := h.calculationID(w, r, op)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondServiceError(w, r, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Calculation deleted successfully"})
}

func (h *handler) handleNotFound(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusNotFound, envelope{Message: "Not found"})
}

func (h *handler) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusMethodNotAllowed, envelope{Message: http.StatusText(http.StatusMethodNotAllowed)})
}

// calculationID parses the {id} route variable. Ids that cannot exist are
// reported as not found.
func (h *handler) calculationID(w http.ResponseWriter, r *http.Request, op string) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil || id == 0 {
		h.respondErrorWithOp(w, r, http.StatusNotFound, "Calculation not found", op)
		return 0, false
	}
	return uint(id), true
}

func (h *handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error, op string) {
	switch {
	case service.IsNotFound(err):
		h.respondErrorWithOp(w, r, http.StatusNotFound, "Calculation not found", op)
	case errors.Is(err, loans.ErrInvalidInput):
		h.respondErrorWithOp(w, r, http.StatusUnprocessableEntity, err.Error(), op)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.respondErrorWithOp(w, r, http.StatusServiceUnavailable, "Request cancelled", op)
	default:
		h.logger.Error("calculation request failed",
			zap.String("op", op),
			zap.String("request_id", requestID(r.Context())),
			zap.Error(err),
		)
		h.writeJSON(w, http.StatusInternalServerError, envelope{Message: "Internal server error"})
	}
}

func (h *handler) respondValidationErrors(w http.ResponseWriter, r *http.Request, fieldErrors validation.FieldErrors, op string) {
	h.logger.Info("validation failed",
		zap.String("op", op),
		zap.String("request_id", requestID(r.Context())),
		zap.String("errors", fieldErrors.Error()),
	)
	h.writeJSON(w, http.StatusUnprocessableEntity, envelope{Errors: fieldErrors})
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, r *http.Request, status int, msg string, op string) {
	logFn := h.logger.Warn
	if status >= http.StatusInternalServerError {
		logFn = h.logger.Error
	}
	logFn("calculation request failed",
		zap.String("op", op),
		zap.String("request_id", requestID(r.Context())),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, envelope{Message: msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
