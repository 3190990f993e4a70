package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/boxkit/internal/advisor"
	"github.com/eugenenazirov/boxkit/internal/catalog"
	"github.com/eugenenazirov/boxkit/internal/courier"
	"github.com/eugenenazirov/boxkit/internal/metrics"
	"github.com/eugenenazirov/boxkit/internal/model"
	"github.com/eugenenazirov/boxkit/internal/optimizer"
	"github.com/eugenenazirov/boxkit/internal/packing"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// maxUnits caps the expanded unit count of a single request.
const maxUnits = 200

// Handler wires optimizer, catalog and advisor dependencies into HTTP handlers.
type Handler struct {
	optimizer optimizer.Optimizer
	catalog   catalog.Store
	advisor   *advisor.Advisor
	courier   *courier.Classifier
	metrics   *metrics.Metrics
	logger    *zap.Logger

	defaults        optimizer.Options
	defaultSupplier string

	clock func() time.Time

	mu        sync.RWMutex
	updatedAt map[string]time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithDefaults sets the optimization options requests start from.
func WithDefaults(opts optimizer.Options) HandlerOption {
	return func(h *Handler) {
		h.defaults = opts
	}
}

// WithDefaultSupplier sets the supplier used when a request names none.
func WithDefaultSupplier(id string) HandlerOption {
	return func(h *Handler) {
		if id != "" {
			h.defaultSupplier = id
		}
	}
}

// WithAdvisor overrides the stock advisor.
func WithAdvisor(a *advisor.Advisor) HandlerOption {
	return func(h *Handler) {
		if a != nil {
			h.advisor = a
		}
	}
}

// WithCourier overrides the courier tier classifier.
func WithCourier(c *courier.Classifier) HandlerOption {
	return func(h *Handler) {
		if c != nil {
			h.courier = c
		}
	}
}

// WithHandlerMetrics records optimization and catalog metrics.
func WithHandlerMetrics(m *metrics.Metrics) HandlerOption {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithHandlerLogger sets the logger used for optimization outcomes.
func WithHandlerLogger(logger *zap.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(opt optimizer.Optimizer, store catalog.Store, opts ...HandlerOption) *Handler {
	h := &Handler{
		optimizer:       opt,
		catalog:         store,
		advisor:         advisor.New(),
		courier:         courier.NewClassifier(),
		logger:          zap.NewNop(),
		defaults:        optimizer.DefaultOptions(),
		defaultSupplier: catalog.DefaultSupplier,
		clock: func() time.Time {
			return time.Now().UTC()
		},
		updatedAt: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(h)
	}
	now := h.clock()
	for _, s := range store.Suppliers() {
		h.updatedAt[s.ID] = now
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListSuppliers(w http.ResponseWriter, r *http.Request) {
	_ = r
	suppliers := h.catalog.Suppliers()
	resp := suppliersResponse{Suppliers: make([]supplierSummary, 0, len(suppliers))}
	for _, s := range suppliers {
		resp.Suppliers = append(resp.Suppliers, supplierSummary{
			ID:        s.ID,
			Name:      s.Name,
			BoxCount:  len(s.Boxes),
			UpdatedAt: h.catalogUpdatedAt(s.ID),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetBoxes(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	boxes, err := h.catalog.Boxes(id)
	if err != nil {
		h.writeCatalogError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, h.boxesResponse(id, boxes, ""))
}

func (h *Handler) handlePutBoxes(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req boxesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeRequestError(w, err)
		return
	}

	boxes := make([]model.Box, 0, len(req.Boxes))
	for _, b := range req.Boxes {
		boxes = append(boxes, b.toModel())
	}
	if err := h.catalog.SetBoxes(id, boxes); err != nil {
		h.writeCatalogError(w, id, err)
		return
	}

	h.markCatalogUpdated(id)
	h.metrics.RecordCatalogReplacement(id)
	h.logger.Info("catalog replaced",
		zap.String("supplier", id),
		zap.Int("boxes", len(boxes)),
		zap.String("request_id", requestIDFromContext(r.Context())),
	)

	stored, err := h.catalog.Boxes(id)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.boxesResponse(id, stored, "Box catalog updated successfully"))
}

func (h *Handler) handleCourierTiers(w http.ResponseWriter, r *http.Request) {
	supplier := h.supplierOrDefault(r.URL.Query().Get("supplier"))
	boxes, err := h.catalog.Boxes(supplier)
	if err != nil {
		h.writeCatalogError(w, supplier, err)
		return
	}

	tiers := h.courier.Tiers()
	resp := courierTiersResponse{
		Supplier:        supplier,
		Tiers:           make([]courierTierView, 0, len(tiers)),
		Recommendations: []courierRecommendation{},
	}
	for _, t := range tiers {
		view := courierTierView{ID: t.ID, Name: t.Name, Max: t.Max}
		if !math.IsInf(t.MaxWeightKg, 1) && t.MaxWeightKg > 0 {
			weight := t.MaxWeightKg
			view.MaxWeightKg = &weight
		}
		resp.Tiers = append(resp.Tiers, view)
	}
	for _, rec := range h.courier.Recommend(boxes) {
		resp.Recommendations = append(resp.Recommendations, courierRecommendation{
			Tier:   rec.Tier.ID,
			Box:    rec.Box,
			Volume: rec.Volume,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeRequestError(w, err)
		return
	}

	items := toItems(req.Items)
	if units := model.TotalUnits(items); units > maxUnits {
		writeError(w, http.StatusBadRequest, "Invalid request",
			fmt.Sprintf("order expands to %d units, the limit is %d", units, maxUnits),
			"Split the order into smaller shipments")
		return
	}

	supplier := h.supplierOrDefault(req.Supplier)
	boxes, err := h.catalog.Boxes(supplier)
	if err != nil {
		h.writeCatalogError(w, supplier, err)
		return
	}
	if req.CourierTier != "" {
		if _, ok := h.courier.Lookup(req.CourierTier); !ok {
			writeError(w, http.StatusBadRequest, "Invalid request",
				fmt.Sprintf("unknown courier tier %q", req.CourierTier),
				"List courier tiers with GET /api/courier/tiers")
			return
		}
		boxes = h.courier.BoxesFor(boxes, req.CourierTier)
	}

	opts := req.options(h.defaults)
	start := time.Now()
	result := h.optimizer.Optimize(items, boxes, opts)
	elapsed := time.Since(start)

	outcome, numBoxes := metrics.OutcomeOptimal, 0
	switch {
	case result.Optimal != nil:
		numBoxes = result.Optimal.NumBoxes
	case result.Analysis.ItemCount == 0:
		outcome = metrics.OutcomeEmpty
	default:
		outcome = metrics.OutcomeInfeasible
	}
	h.metrics.RecordOptimization(string(result.Analysis.Strategy), outcome, numBoxes, elapsed)
	h.logger.Info("optimization completed",
		zap.String("supplier", supplier),
		zap.String("courier_tier", req.CourierTier),
		zap.String("strategy", string(result.Analysis.Strategy)),
		zap.String("outcome", outcome),
		zap.Int("units", result.Analysis.ItemCount),
		zap.Int("boxes", numBoxes),
		zap.Bool("budget_expired", result.Analysis.BudgetExpired),
		zap.Duration("duration", elapsed),
		zap.String("request_id", requestIDFromContext(r.Context())),
	)

	resp := optimizeResponse{
		Supplier:          supplier,
		CourierTier:       req.CourierTier,
		Result:            result,
		CalculationTimeMs: elapsed.Milliseconds(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleRank(w http.ResponseWriter, r *http.Request) {
	var req rankRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeRequestError(w, err)
		return
	}

	items := toItems(req.Items)
	if units := model.TotalUnits(items); units > maxUnits {
		writeError(w, http.StatusBadRequest, "Invalid request",
			fmt.Sprintf("order expands to %d units, the limit is %d", units, maxUnits))
		return
	}

	supplier := h.supplierOrDefault(req.Supplier)
	boxes, err := h.catalog.Boxes(supplier)
	if err != nil {
		h.writeCatalogError(w, supplier, err)
		return
	}

	padding := h.defaults.Padding
	if req.Padding != nil {
		padding = *req.Padding
	}

	rankings := packing.Rank(boxes, items, padding)
	resp := rankResponse{Supplier: supplier, Rankings: rankings}
	if best, ok := packing.BestOf(rankings); ok {
		resp.Best = &best.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleStockAdvice(w http.ResponseWriter, r *http.Request) {
	var req stockRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeRequestError(w, err)
		return
	}

	supplier := h.supplierOrDefault(req.Supplier)
	boxes, err := h.catalog.Boxes(supplier)
	if err != nil {
		h.writeCatalogError(w, supplier, err)
		return
	}

	orders, buffer := advisor.DefaultMonthlyOrders, advisor.DefaultSafetyBuffer
	if req.MonthlyOrders != nil {
		orders = *req.MonthlyOrders
	}
	if req.SafetyBuffer != nil {
		buffer = *req.SafetyBuffer
	}

	plan, err := h.advisor.Recommend(orders, buffer, boxes)
	if err != nil {
		if errors.Is(err, advisor.ErrInvalidRequest) {
			writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stockResponse{Supplier: supplier, Plan: plan})
}

func (h *Handler) supplierOrDefault(id string) string {
	if id == "" {
		return h.defaultSupplier
	}
	return id
}

func (h *Handler) boxesResponse(id string, boxes []model.Box, message string) boxesResponse {
	resp := boxesResponse{
		Supplier:  id,
		Boxes:     make([]boxView, 0, len(boxes)),
		UpdatedAt: h.catalogUpdatedAt(id),
		Message:   message,
	}
	for _, b := range boxes {
		view := boxView{Box: b}
		if tier, ok := h.courier.TierFor(b); ok {
			view.CourierTier = tier.ID
		}
		resp.Boxes = append(resp.Boxes, view)
	}
	return resp
}

func (h *Handler) writeCatalogError(w http.ResponseWriter, id string, err error) {
	switch {
	case errors.Is(err, catalog.ErrUnknownSupplier):
		writeError(w, http.StatusNotFound, "Unknown supplier",
			fmt.Sprintf("supplier %q is not loaded", id), "List suppliers with GET /api/suppliers")
	case errors.Is(err, catalog.ErrInvalidCatalog):
		writeError(w, http.StatusBadRequest, "Invalid box catalog", err.Error())
	default:
		writeInternalError(w, err)
	}
}

func (h *Handler) catalogUpdatedAt(id string) time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.updatedAt[id]
}

func (h *Handler) markCatalogUpdated(id string) {
	h.mu.Lock()
	h.updatedAt[id] = h.clock()
	h.mu.Unlock()
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeRequestError(w http.ResponseWriter, err error) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		writeError(w, http.StatusBadRequest, reqErr.message, reqErr.details)
		return
	}
	writeInternalError(w, err)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
