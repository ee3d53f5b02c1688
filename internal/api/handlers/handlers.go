package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dvloznov/finance-dashboard/internal/accounts"
	"github.com/dvloznov/finance-dashboard/internal/api/middleware"
	"github.com/dvloznov/finance-dashboard/internal/dashboard"
	"github.com/dvloznov/finance-dashboard/internal/plaid"
	"github.com/dvloznov/finance-dashboard/internal/store"
	"github.com/dvloznov/finance-dashboard/internal/transactions"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// TransactionService is the transaction side of the dashboard.
type TransactionService interface {
	List(ctx context.Context) ([]transactions.Transaction, error)
	View(ctx context.Context, q dashboard.ViewQuery, now time.Time) (*dashboard.View, error)
	Recategorize(ctx context.Context, id, category string) ([]transactions.Transaction, error)
	Categories() []string
}

// AccountService is the linked-accounts side of the dashboard.
type AccountService interface {
	Summary(ctx context.Context, showHidden bool) (accounts.Summary, error)
	Disconnect(ctx context.Context, institutionID string) (int, error)
}

// Linker runs the public-token exchange flow.
type Linker interface {
	Link(ctx context.Context, publicToken string) (*dashboard.LinkResult, error)
}

// writeServiceError maps service errors to HTTP statuses. Unexpected errors
// are logged and reported as msg.
func writeServiceError(w http.ResponseWriter, log zerolog.Logger, err error, msg string) {
	var apiErr *plaid.APIError
	switch {
	case errors.Is(err, dashboard.ErrInvalidInput):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	case errors.As(err, &apiErr):
		log.Error().Err(err).Str("plaid_request_id", apiErr.RequestID).Msg(msg)
		message := apiErr.DisplayMessage
		if message == "" {
			message = msg
		}
		middleware.WriteError(w, http.StatusBadGateway, message)
	default:
		log.Error().Err(err).Msg(msg)
		middleware.WriteError(w, http.StatusInternalServerError, msg)
	}
}

// TransactionsHandler handles transaction-related endpoints.
type TransactionsHandler struct {
	svc   TransactionService
	clock func() time.Time
	log   zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler. clock returns
// "now" in the configured timezone.
func NewTransactionsHandler(svc TransactionService, clock func() time.Time, log zerolog.Logger) *TransactionsHandler {
	if clock == nil {
		clock = time.Now
	}
	return &TransactionsHandler{
		svc:   svc,
		clock: clock,
		log:   log,
	}
}

// ListTransactions handles GET /api/accounts/transactions
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": transactions.ToRecords(txs),
	})
}

// View handles GET /api/transactions/view
func (h *TransactionsHandler) View(w http.ResponseWriter, r *http.Request) {
	q, err := ParseViewQuery(r.URL.Query())
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.svc.View(r.Context(), q, h.clock())
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to build transaction view")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, view)
}

// UpdateCategory handles POST /api/accounts/transactions/{id}/category
func (h *TransactionsHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category string `json:"category"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Category == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Category is required")
		return
	}

	id := mux.Vars(r)["id"]
	txs, err := h.svc.Recategorize(r.Context(), id, req.Category)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to update category")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"transactions": transactions.ToRecords(txs),
	})
}

// ListCategories handles GET /api/categories
func (h *TransactionsHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories := h.svc.Categories()
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
		"count":      len(categories),
	})
}

// AccountsHandler handles account-related endpoints.
type AccountsHandler struct {
	svc    AccountService
	linker Linker
	log    zerolog.Logger
}

// NewAccountsHandler creates a new accounts handler. A nil linker disables
// the token exchange endpoint.
func NewAccountsHandler(svc AccountService, linker Linker, log zerolog.Logger) *AccountsHandler {
	return &AccountsHandler{
		svc:    svc,
		linker: linker,
		log:    log,
	}
}

// Summary handles GET /api/accounts
func (h *AccountsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	showHidden, err := parseBool(r.URL.Query().Get("showHidden"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid showHidden value")
		return
	}

	summary, err := h.svc.Summary(r.Context(), showHidden)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to load accounts")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, summary)
}

// Disconnect handles POST /api/accounts/disconnect
func (h *AccountsHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InstitutionID string `json:"institutionId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	n, err := h.svc.Disconnect(r.Context(), req.InstitutionID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to disconnect institution")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"accountsRemoved": n,
	})
}

// ExchangeToken handles POST /api/plaid/exchange-token
func (h *AccountsHandler) ExchangeToken(w http.ResponseWriter, r *http.Request) {
	if h.linker == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Account linking is not configured")
		return
	}

	var req struct {
		PublicToken string `json:"public_token"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.PublicToken == "" {
		middleware.WriteError(w, http.StatusBadRequest, "public_token is required")
		return
	}

	res, err := h.linker.Link(r.Context(), req.PublicToken)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to link institution")
		return
	}

	h.log.Info().Str("item_id", res.ItemID).Str("institution_id", res.InstitutionID).Msg("Token exchanged")
	middleware.WriteJSON(w, http.StatusOK, res)
}
