// Package api exposes the recomputed inventory analysis over HTTP
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/septivank/stockflow-worker/internal/inventory"
	"github.com/septivank/stockflow-worker/internal/repository"
	"github.com/septivank/stockflow-worker/internal/service"
	"github.com/septivank/stockflow-worker/tools/timeparser"
	"go.uber.org/zap"
)

var errBadRequest = errors.New("bad request")

// QueryService is the read side served by the API
type QueryService interface {
	Products(ctx context.Context) ([]string, error)
	Report(ctx context.Context, filter repository.RecordFilter) (service.ProductReport, error)
	Daily(ctx context.Context, filter repository.RecordFilter) ([]inventory.DailyAggregate, error)
	Anomalies(ctx context.Context, filter repository.RecordFilter) ([]inventory.Anomaly, error)
	Settings(ctx context.Context) (inventory.SettingsMap, error)
}

// Handler serves the read endpoints
type Handler struct {
	query  QueryService
	logger *zap.Logger
}

// NewHandler creates a new API handler
func NewHandler(query QueryService, logger *zap.Logger) *Handler {
	return &Handler{query: query, logger: logger}
}

// Routes mounts the API endpoints on r
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.listProducts)
		r.Get("/products/{product}/stats", h.productStats)
		r.Get("/products/{product}/daily", h.productDaily)
		r.Get("/anomalies", h.listAnomalies)
		r.Get("/settings", h.listSettings)
	})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.query.Products(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if products == nil {
		products = []string{}
	}
	respondOK(w, r, h.logger, products)
}

func (h *Handler) productStats(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFrom(r, chi.URLParam(r, "product"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	report, err := h.query.Report(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondOK(w, r, h.logger, report)
}

func (h *Handler) productDaily(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFrom(r, chi.URLParam(r, "product"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	daily, err := h.query.Daily(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if daily == nil {
		daily = []inventory.DailyAggregate{}
	}
	respondOK(w, r, h.logger, daily)
}

func (h *Handler) listAnomalies(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFrom(r, r.URL.Query().Get("product"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	anomalies, err := h.query.Anomalies(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondOK(w, r, h.logger, anomalies)
}

func (h *Handler) listSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.query.Settings(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondOK(w, r, h.logger, settings)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errBadRequest) {
		respondError(w, r, h.logger, http.StatusBadRequest, err)
		return
	}
	h.logger.Error("request failed",
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	)
	respondError(w, r, h.logger, http.StatusInternalServerError, errors.New("internal error"))
}

// filterFrom reads the optional start and end query parameters. Both accept
// the same date formats as record input.
func filterFrom(r *http.Request, product string) (repository.RecordFilter, error) {
	filter := repository.RecordFilter{Product: product}
	q := r.URL.Query()

	for _, bound := range []struct {
		name string
		dst  *string
	}{{"start", &filter.Start}, {"end", &filter.End}} {
		raw := q.Get(bound.name)
		if raw == "" {
			continue
		}
		date, err := timeparser.ParseRecordDate(raw)
		if err != nil {
			return filter, fmt.Errorf("%w: invalid %s: %v", errBadRequest, bound.name, err)
		}
		*bound.dst = date
	}

	if filter.Start != "" && filter.End != "" && filter.Start > filter.End {
		return filter, fmt.Errorf("%w: start %s is after end %s", errBadRequest, filter.Start, filter.End)
	}
	return filter, nil
}
