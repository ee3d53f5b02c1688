// Package api assembles the HTTP routes and middleware of the dashboard.
package api

import (
	"net/http"
	"time"

	"github.com/dvloznov/finance-dashboard/internal/api/handlers"
	"github.com/dvloznov/finance-dashboard/internal/api/middleware"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Handlers are the endpoint groups served by the router.
type Handlers struct {
	Transactions *handlers.TransactionsHandler
	Accounts     *handlers.AccountsHandler
	Jobs         *handlers.JobsHandler
}

// NewRouter registers every route on a gorilla/mux router.
func NewRouter(h Handlers) *mux.Router {
	r := mux.NewRouter()
	setErrorHandlers(r)

	// Health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	}).Methods(http.MethodGet)

	// A subrouter answers unmatched paths and methods itself.
	api := r.PathPrefix("/api").Subrouter()
	setErrorHandlers(api)

	// Transactions endpoints
	api.HandleFunc("/accounts/transactions", h.Transactions.ListTransactions).Methods(http.MethodGet)
	api.HandleFunc("/accounts/transactions/{id}/category", h.Transactions.UpdateCategory).Methods(http.MethodPost)
	api.HandleFunc("/transactions/view", h.Transactions.View).Methods(http.MethodGet)
	api.HandleFunc("/categories", h.Transactions.ListCategories).Methods(http.MethodGet)

	// Accounts endpoints
	api.HandleFunc("/accounts", h.Accounts.Summary).Methods(http.MethodGet)
	api.HandleFunc("/accounts/disconnect", h.Accounts.Disconnect).Methods(http.MethodPost)
	api.HandleFunc("/plaid/exchange-token", h.Accounts.ExchangeToken).Methods(http.MethodPost)

	// Jobs endpoints
	api.HandleFunc("/exports", h.Jobs.EnqueueExport).Methods(http.MethodPost)
	api.HandleFunc("/categorize", h.Jobs.EnqueueCategorize).Methods(http.MethodPost)
	api.HandleFunc("/jobs", h.Jobs.ListJobs).Methods(http.MethodGet)
	api.HandleFunc("/jobs/{id}", h.Jobs.GetJob).Methods(http.MethodGet)

	return r
}

func setErrorHandlers(r *mux.Router) {
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
}

// Wrap applies the middleware chain around router. Preflight requests are
// answered by CORS before route matching.
func Wrap(router http.Handler, allowedOrigin string, log zerolog.Logger) http.Handler {
	return middleware.Recovery(log)(
		middleware.RequestID(
			middleware.Logger(log)(
				middleware.CORS(allowedOrigin)(router),
			),
		),
	)
}
