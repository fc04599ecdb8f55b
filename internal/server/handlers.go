// Package server exposes the ledger over HTTP. Handlers parse and
// validate requests, delegate to the service layer and translate its
// error taxonomy into status codes.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/adiallo/debtbook/internal/auth"
	"github.com/adiallo/debtbook/internal/middleware"
	"github.com/adiallo/debtbook/internal/models"
	"github.com/adiallo/debtbook/internal/service"
	"github.com/adiallo/debtbook/internal/storage"
)

// cacheControl is set on cached read endpoints so clients polling the
// shared ledger can reuse responses and tolerate brief staleness.
const cacheControl = "private, max-age=60, stale-while-revalidate=30"

// Handler holds the dependencies for all HTTP handlers.
type Handler struct {
	ledger        *service.LedgerService
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	pollInterval  time.Duration
	currency      string
}

// NewHandler creates a handler backed by the given collaborators.
func NewHandler(ledger *service.LedgerService, authenticator auth.Authenticator, jwtManager *auth.JWTManager, pollInterval time.Duration, currency string) *Handler {
	return &Handler{
		ledger:        ledger,
		authenticator: authenticator,
		jwtManager:    jwtManager,
		pollInterval:  pollInterval,
		currency:      currency,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidViewMode):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrArchiveFailed):
		writeError(w, http.StatusInternalServerError, "settlement archive failed, no data was changed")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func actorFrom(r *http.Request) service.Actor {
	return service.Actor{
		ID:   middleware.GetActorID(r.Context()),
		Name: middleware.GetActorName(r.Context()),
	}
}

func parseMode(s string) (models.ViewMode, error) {
	if s == "" {
		return models.TheyOweMe, nil
	}
	return models.ParseViewMode(s)
}

// Register handles POST /api/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.DisplayName == "" {
		writeError(w, http.StatusBadRequest, "email and display_name are required")
		return
	}

	user, err := h.authenticator.Register(r.Context(), req.Email, req.DisplayName, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrWeakPassword):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, auth.ErrEmailExists):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "registration failed")
		}
		return
	}

	h.respondWithToken(w, user)
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.authenticator.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, auth.ErrInvalidCredentials.Error())
		return
	}

	h.respondWithToken(w, user)
}

func (h *Handler) respondWithToken(w http.ResponseWriter, user *models.User) {
	token, err := h.jwtManager.Generate(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	writeJSON(w, http.StatusOK, authResponse{
		Token: token,
		User: userResponse{
			ID:          user.ID,
			Email:       user.Email,
			DisplayName: user.DisplayName,
			Role:        string(user.Role),
		},
	})
}

// GetConfig handles GET /api/config. Public: the frontend polls it
// before any user signs in.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, configResponse{
		PollIntervalMS: h.pollInterval.Milliseconds(),
		Currency:       h.currency,
	})
}

// ListPersons handles GET /api/persons?view=<mode>.
func (h *Handler) ListPersons(w http.ResponseWriter, r *http.Request) {
	mode, err := parseMode(r.URL.Query().Get("view"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := h.ledger.ListPersons(r.Context(), mode)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]personResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toPersonResponse(row))
	}
	w.Header().Set("Cache-Control", cacheControl)
	writeJSON(w, http.StatusOK, out)
}

// AddTransaction handles POST /api/transactions.
func (h *Handler) AddTransaction(w http.ResponseWriter, r *http.Request) {
	var req addTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	mode, err := parseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	in := service.AddTransactionInput{
		PersonID:        req.PersonID,
		PersonName:      req.PersonName,
		PersonSignature: req.PersonSignature,
		Description:     req.Description,
		Comment:         req.Comment,
		Amount:          req.Amount,
		Mode:            mode,
		DueDate:         req.DueDate,
		Signature:       req.Signature,
	}
	if req.Date != nil {
		in.Date = *req.Date
	}

	tx, err := h.ledger.AddTransaction(r.Context(), actorFrom(r), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionResponse(tx))
}

// RecordPayment handles POST /api/payments.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	mode, err := parseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	in := service.PaymentInput{
		PersonID:    req.PersonID,
		Amount:      req.Amount,
		Mode:        mode,
		Description: req.Description,
		Comment:     req.Comment,
		Signature:   req.Signature,
	}
	if req.Date != nil {
		in.Date = *req.Date
	}

	res, err := h.ledger.RecordPayment(r.Context(), actorFrom(r), in)
	if err != nil && !errors.Is(err, service.ErrDeleteAfterArchiveFailed) {
		writeServiceError(w, err)
		return
	}

	out := paymentResponse{
		Transaction: toTransactionResponse(res.Transaction),
		Settled:     res.Settled,
	}
	if res.Record != nil {
		out.Record = toSettledRecordResponse(res.Record)
	}
	if err != nil {
		// Archive durable, active rows not yet purged. The payment
		// itself succeeded, so this is a warning rather than a failure.
		out.Warning = deleteWarning(err)
	}
	writeJSON(w, http.StatusOK, out)
}

// EditAmount handles PUT /api/transactions/amount.
func (h *Handler) EditAmount(w http.ResponseWriter, r *http.Request) {
	var req editAmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	mode, err := parseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.ledger.DirectEdit(r.Context(), actorFrom(r), req.PersonID, req.Amount, mode)
	if err != nil && !errors.Is(err, service.ErrDeleteAfterArchiveFailed) {
		writeServiceError(w, err)
		return
	}

	out := editAmountResponse{
		NoOp:    res.NoOp,
		Settled: res.Settled,
	}
	if res.Adjustment != nil {
		adj := toTransactionResponse(res.Adjustment)
		out.Adjustment = &adj
	}
	if res.Record != nil {
		out.Record = toSettledRecordResponse(res.Record)
	}
	if err != nil {
		out.Warning = deleteWarning(err)
	}
	writeJSON(w, http.StatusOK, out)
}

// SettlePerson handles POST /api/persons/{id}/settle.
func (h *Handler) SettlePerson(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "id")

	var req settleRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	mode, err := parseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.ledger.SettleNow(r.Context(), actorFrom(r), personID, mode, req.Notes)
	if err != nil && !errors.Is(err, service.ErrDeleteAfterArchiveFailed) {
		writeServiceError(w, err)
		return
	}

	out := struct {
		Record  *settledRecordResponse `json:"record"`
		Warning string                 `json:"warning,omitempty"`
	}{Record: toSettledRecordResponse(rec)}
	if err != nil {
		out.Warning = deleteWarning(err)
	}
	writeJSON(w, http.StatusOK, out)
}

// DeletePerson handles DELETE /api/persons/{id}?view=<mode>.
func (h *Handler) DeletePerson(w http.ResponseWriter, r *http.Request) {
	mode, err := parseMode(r.URL.Query().Get("view"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.ledger.DeletePerson(r.Context(), actorFrom(r), chi.URLParam(r, "id"), mode); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SettleTransaction handles POST /api/transactions/{id}/settle.
func (h *Handler) SettleTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.ledger.SettleTransaction(r.Context(), actorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

// UnsettleTransaction handles POST /api/transactions/{id}/unsettle.
func (h *Handler) UnsettleTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.ledger.UnsettleTransaction(r.Context(), actorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

// ListSettledRecords handles GET /api/settled.
func (h *Handler) ListSettledRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.ledger.ListSettledRecords(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]*settledRecordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toSettledRecordResponse(rec))
	}
	w.Header().Set("Cache-Control", cacheControl)
	writeJSON(w, http.StatusOK, out)
}

// ListActivity handles GET /api/activity. Admin only.
func (h *Handler) ListActivity(w http.ResponseWriter, r *http.Request) {
	entries, err := h.ledger.ListActivity(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]activityResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toActivityResponse(e))
	}
	w.Header().Set("Cache-Control", cacheControl)
	writeJSON(w, http.StatusOK, out)
}

func deleteWarning(err error) string {
	var deleteErr *service.DeleteAfterArchiveError
	if errors.As(err, &deleteErr) {
		return fmt.Sprintf("settled record %s saved, but old transactions could not be removed", deleteErr.ArchiveID)
	}
	return "settled record saved, but old transactions could not be removed"
}
