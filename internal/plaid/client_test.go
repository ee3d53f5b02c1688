package plaid

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{ClientID: "cid", Secret: "sec", BaseURL: srv.URL})
	require.NoError(t, err)
	return c
}

func decodeBody(t *testing.T, r *http.Request) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestNewClient_Environment(t *testing.T) {
	c, err := NewClient(Config{Environment: "sandbox"})
	require.NoError(t, err)
	require.Equal(t, "https://sandbox.plaid.com", c.baseURL)

	_, err = NewClient(Config{Environment: "staging"})
	require.Error(t, err)
}

func TestExchangePublicToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/item/public_token/exchange", r.URL.Path)
		require.Equal(t, "cid", r.Header.Get("PLAID-CLIENT-ID"))
		require.Equal(t, "sec", r.Header.Get("PLAID-SECRET"))
		body := decodeBody(t, r)
		require.Equal(t, "public-sandbox-1", body["public_token"])
		writeJSON(w, http.StatusOK, `{"access_token":"access-sandbox-1","item_id":"item-1","request_id":"r1"}`)
	})

	res, err := c.ExchangePublicToken(context.Background(), "public-sandbox-1")
	require.NoError(t, err)
	require.Equal(t, "access-sandbox-1", res.AccessToken)
	require.Equal(t, "item-1", res.ItemID)
	require.Equal(t, "r1", res.RequestID)
}

func TestGetItem(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/item/get", r.URL.Path)
		require.Equal(t, "access-1", decodeBody(t, r)["access_token"])
		writeJSON(w, http.StatusOK, `{"item":{"item_id":"item-1","institution_id":"ins_3","webhook":null,"error":null,
			"available_products":[],"billed_products":[],"consent_expiration_time":null,"update_type":"background"},
			"request_id":"r3"}`)
	})

	item, err := c.GetItem(context.Background(), "access-1")
	require.NoError(t, err)
	require.Equal(t, "item-1", item.ItemID)
	require.Equal(t, "ins_3", item.InstitutionID)
}

func TestGetInstitution(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/institutions/get_by_id", r.URL.Path)
		body := decodeBody(t, r)
		require.Equal(t, "ins_3", body["institution_id"])
		require.Equal(t, []interface{}{"US"}, body["country_codes"])
		opts := body["options"].(map[string]interface{})
		require.Equal(t, true, opts["include_optional_metadata"])
		writeJSON(w, http.StatusOK, `{"institution":{"institution_id":"ins_3","name":"Chase","products":[],
			"country_codes":["US"],"url":null,"primary_color":null,"logo":null,"routing_numbers":[],"dtc_numbers":[],"oauth":false},
			"request_id":"r4"}`)
	})

	inst, err := c.GetInstitution(context.Background(), "ins_3", []string{"US"})
	require.NoError(t, err)
	require.Equal(t, "ins_3", inst.InstitutionID)
	require.Equal(t, "Chase", inst.Name)
	require.Empty(t, inst.Logo)
}

func TestGetAccounts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/accounts/get", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"accounts":[
			{"account_id":"a1","name":"Plaid Checking","official_name":null,"mask":"0000","type":"depository","subtype":"checking",
			 "balances":{"current":110.5,"available":100,"limit":null,"iso_currency_code":"USD","unofficial_currency_code":null}},
			{"account_id":"a2","name":"Plaid Brokerage","official_name":null,"mask":null,"type":"investment","subtype":null,
			 "balances":{"current":null,"available":null,"limit":null,"iso_currency_code":null,"unofficial_currency_code":null}}
		],"item":{"item_id":"item-1","institution_id":"ins_3","webhook":null,"error":null,"available_products":[],
			"billed_products":[],"consent_expiration_time":null,"update_type":"background"},"request_id":"r5"}`)
	})

	accts, err := c.GetAccounts(context.Background(), "access-1")
	require.NoError(t, err)
	require.Len(t, accts, 2)

	require.Equal(t, "a1", accts[0].AccountID)
	require.Equal(t, "0000", accts[0].MatchKey().Mask)
	require.Equal(t, "checking", accts[0].Subtype)
	require.True(t, accts[0].Balances.Current.Valid)
	require.True(t, accts[0].Balances.Current.Decimal.Equal(decimal.RequireFromString("110.5")))
	require.True(t, accts[0].Balances.Available.Decimal.Equal(decimal.NewFromInt(100)))
	require.False(t, accts[0].Balances.Limit.Valid)
	require.Equal(t, "USD", accts[0].Balances.ISOCurrencyCode)

	require.Empty(t, accts[1].Mask)
	require.Empty(t, accts[1].Subtype)
	require.Equal(t, "investment", accts[1].Type)
	require.False(t, accts[1].Balances.Current.Valid)
}

func TestAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"error_type":"INVALID_INPUT","error_code":"INVALID_PUBLIC_TOKEN",
			"error_message":"provided public token is in an invalid format","display_message":"Please relink","request_id":"r2"}`)
	})

	_, err := c.ExchangePublicToken(context.Background(), "bad")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Equal(t, "INVALID_INPUT", apiErr.ErrorType)
	require.Equal(t, "INVALID_PUBLIC_TOKEN", apiErr.ErrorCode)
	require.Equal(t, "Please relink", apiErr.DisplayMessage)
}

func TestAPIError_NonJSONBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	})

	_, err := c.GetItem(context.Background(), "access-1")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	require.Equal(t, "API_ERROR", apiErr.ErrorType)
	require.Contains(t, apiErr.ErrorMessage, "upstream unavailable")
}

func TestTransportErrorPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	c, err := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.GetAccounts(context.Background(), "access-1")
	require.Error(t, err)
	var apiErr *APIError
	require.False(t, errors.As(err, &apiErr))
}
