/*
handlers.go - HTTP API handlers for the renewal engine

PURPOSE:
  Exposes premium pricing, status evaluation, quoting and renewal over
  REST. Handles HTTP request/response and JSON, and delegates to the
  renewal workflow.

ENDPOINTS:
  Reference:
    GET    /api/health                 Liveness and store ping
    GET    /api/methods                Payment methods and fee rules

  Evaluation (read-only):
    POST   /api/premium                Premium breakdown for a vehicle
    POST   /api/status                 Status, days and fine on a date
    POST   /api/quote                  Full bill for a method and promo

  Renewal:
    POST   /api/renewals               Confirm and commit a renewal
    GET    /api/receipts               Recent receipts, newest first
    GET    /api/receipts/{id}          One receipt

  Scenarios:
    GET    /api/scenarios              Worked examples evaluated live

REQUEST FLOW:
  1. Decode and validate the vehicle DTO
  2. Resolve as_of (defaults to today)
  3. Call the workflow
  4. Serialize the response

ERROR HANDLING:
  - 400: malformed body, invalid date/vehicle, method outside 1-6
  - 402: renewal declined (payment not confirmed)
  - 404: unknown receipt
  - 409: policy not expired, idempotency key reused for another renewal
  - 500: store failures

IDEMPOTENCY:
  POST /api/renewals takes the key from the Idempotency-Key header or the
  idempotency_key field. Without one a fresh UUID is used, so blind
  retries are not deduplicated.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Worked examples
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/warp/renewal-engine/billing"
	"github.com/warp/renewal-engine/generic"
	"github.com/warp/renewal-engine/insurance"
	"github.com/warp/renewal-engine/logging"
	"github.com/warp/renewal-engine/renewal"
)

// IdempotencyHeader carries the client's retry key on POST /api/renewals.
const IdempotencyHeader = "Idempotency-Key"

const defaultReceiptLimit = 50

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Pinger is implemented by stores that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Workflow *renewal.Workflow
	Receipts renewal.ReceiptStore
	Logger   logging.Logger

	// today resolves the default as_of date.
	today func() generic.PolicyDate
}

// NewHandler creates a handler. receipts may be nil, in which case the
// receipt endpoints return empty results.
func NewHandler(wf *renewal.Workflow, receipts renewal.ReceiptStore, logger logging.Logger) *Handler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Handler{
		Workflow: wf,
		Receipts: receipts,
		Logger:   logger,
		today:    generic.Today,
	}
}

// =============================================================================
// REFERENCE HANDLERS
// =============================================================================

// Health reports liveness and, when the store supports it, store reachability.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.Receipts.(Pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "Receipt store unavailable", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"today":  h.today().String(),
	})
}

// ListMethods returns the payment menu in selector order.
func (h *Handler) ListMethods(w http.ResponseWriter, r *http.Request) {
	methods := billing.Methods()
	dtos := make([]MethodDTO, len(methods))
	for i, m := range methods {
		dtos[i] = toMethodDTO(m)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// EVALUATION HANDLERS
// =============================================================================

// Premium prices the vehicle in the as_of year.
func (h *Handler) Premium(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	v, asOf, ok := h.decodeVehicle(w, r, &req, &req.Vehicle, &req.AsOf)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, PremiumResponse{
		Vehicle:       v.String(),
		ReferenceYear: asOf.Year,
		Breakdown:     h.Workflow.Calculator().Breakdown(v, asOf.Year),
	})
}

// Status evaluates the policy on as_of. Nothing is written back.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	v, asOf, ok := h.decodeVehicle(w, r, &req, &req.Vehicle, &req.AsOf)
	if !ok {
		return
	}

	a := h.Workflow.Assess(v, asOf)
	writeJSON(w, http.StatusOK, StatusResponse{
		AsOf:        asOf.String(),
		DueDate:     v.DueDate().String(),
		Result:      a.Status,
		DaysOverdue: a.Status.DaysOverdue(),
		Renewable:   a.Renewable,
	})
}

// Quote composes the bill without committing. Policies that are not
// renewable are still quoted so the price can be shown.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	v, asOf, ok := h.decodeVehicle(w, r, &req, &req.Vehicle, &req.AsOf)
	if !ok {
		return
	}

	out := h.Workflow.Quote(v, renewal.Request{Current: asOf, Method: req.Method, Promo: req.Promo})
	if out.Kind == renewal.OutcomeInvalidMethod {
		writeError(w, http.StatusBadRequest, "Invalid payment method (choose 1-6)", out.Reason)
		return
	}

	writeJSON(w, http.StatusOK, QuoteResponse{
		Assessment: toAssessmentDTO(out.Assessment, v.DueDate()),
		Method:     toMethodDTO(out.Method),
		Promo:      out.Promo.String(),
		Bill:       out.Bill,
	})
}

// =============================================================================
// RENEWAL HANDLERS
// =============================================================================

// Renew runs the renewal flow. The request's confirm flag (and optional
// expected_total) stands in for the interactive payment prompt.
func (h *Handler) Renew(w http.ResponseWriter, r *http.Request) {
	var req RenewRequest
	v, asOf, ok := h.decodeVehicle(w, r, &req, &req.Vehicle, &req.AsOf)
	if !ok {
		return
	}

	key := r.Header.Get(IdempotencyHeader)
	if key == "" {
		key = req.IdempotencyKey
	}
	if key == "" {
		key = uuid.NewString()
	}

	oldDue := v.DueDate()
	out, err := h.Workflow.Renew(r.Context(), v, renewal.Request{
		Current:        asOf,
		Method:         req.Method,
		Promo:          req.Promo,
		IdempotencyKey: key,
	}, requestConfirmer(req))
	if err != nil {
		if errors.Is(err, generic.ErrDuplicateIdempotencyKey) {
			writeError(w, http.StatusConflict, "Idempotency key already used for a different renewal", err)
			return
		}
		h.Logger.Error("renewal failed", logging.Err(err), logging.String("idempotency_key", key))
		writeError(w, http.StatusInternalServerError, "Failed to record renewal", err)
		return
	}

	writeJSON(w, renewStatus(out), toRenewResponse(out, v, oldDue))
}

// requestConfirmer confirms when the client said so and, if it named a
// total, only when the quote matches it to the paisa. Totals go out rounded,
// so both sides are compared rounded.
func requestConfirmer(req RenewRequest) renewal.Confirmer {
	return renewal.ConfirmFunc(func(bill billing.BillBreakdown, _ billing.Method) bool {
		if !req.Confirm {
			return false
		}
		return req.ExpectedTotal == nil || req.ExpectedTotal.Rounded().Equal(bill.Total.Rounded())
	})
}

func renewStatus(out renewal.Outcome) int {
	switch out.Kind {
	case renewal.OutcomeRenewed:
		if out.Replayed {
			return http.StatusOK
		}
		return http.StatusCreated
	case renewal.OutcomeNotExpired:
		return http.StatusConflict
	case renewal.OutcomeInvalidMethod:
		return http.StatusBadRequest
	case renewal.OutcomeDeclined:
		return http.StatusPaymentRequired
	default:
		return http.StatusOK
	}
}

// ListReceipts returns receipts newest first. ?limit=N, default 50, 0 = all.
func (h *Handler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	if h.Receipts == nil {
		writeJSON(w, http.StatusOK, []ReceiptDTO{})
		return
	}

	limit := defaultReceiptLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	receipts, err := h.Receipts.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list receipts", err)
		return
	}

	dtos := make([]ReceiptDTO, len(receipts))
	for i, rc := range receipts {
		dtos[i] = toReceiptDTO(rc)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetReceipt returns a single receipt.
func (h *Handler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if h.Receipts == nil {
		writeError(w, http.StatusNotFound, "Receipt not found", generic.ErrReceiptNotFound)
		return
	}

	rc, err := h.Receipts.Get(r.Context(), id)
	if err != nil {
		if generic.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Receipt not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get receipt", err)
		return
	}
	writeJSON(w, http.StatusOK, toReceiptDTO(*rc))
}

// =============================================================================
// HELPERS
// =============================================================================

// decodeVehicle decodes body into dst, then validates the embedded vehicle
// and as_of. On failure it writes the error response and returns ok=false.
func (h *Handler) decodeVehicle(w http.ResponseWriter, r *http.Request, dst any, vehicle *VehicleDTO, asOf *string) (*insurance.Vehicle, generic.PolicyDate, bool) {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return nil, generic.PolicyDate{}, false
	}

	v, err := vehicle.toVehicle()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid vehicle", err)
		return nil, generic.PolicyDate{}, false
	}

	current := h.today()
	if *asOf != "" {
		current, err = generic.ParsePolicyDate(*asOf)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid as_of date (use DD/MM/YYYY or YYYY-MM-DD)", err)
			return nil, generic.PolicyDate{}, false
		}
	}
	return v, current, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
		resp.Code = errorCode(err)
	}
	writeJSON(w, status, resp)
}

// errorCode names the sentinel behind err for machine-readable responses.
func errorCode(err error) string {
	switch {
	case errors.Is(err, generic.ErrInvalidDate):
		return "invalid_date"
	case errors.Is(err, generic.ErrInvalidVehicle):
		return "invalid_vehicle"
	case errors.Is(err, generic.ErrInvalidMethod):
		return "invalid_method"
	case errors.Is(err, generic.ErrDuplicateIdempotencyKey):
		return "duplicate_idempotency_key"
	case errors.Is(err, generic.ErrReceiptNotFound):
		return "receipt_not_found"
	default:
		return ""
	}
}
