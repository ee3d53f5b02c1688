// Package plaid wraps the Plaid SDK calls used by the link flow and maps
// their responses onto the dashboard's account types.
package plaid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dvloznov/finance-dashboard/internal/reconcile"
	sdk "github.com/plaid/plaid-go/v20/plaid"
	"github.com/shopspring/decimal"
)

// Hosts per environment.
var hosts = map[string]string{
	"sandbox":     "https://sandbox.plaid.com",
	"development": "https://development.plaid.com",
	"production":  "https://production.plaid.com",
}

// Config configures a Client.
type Config struct {
	ClientID    string
	Secret      string
	Environment string
	// BaseURL overrides the environment host.
	BaseURL    string
	HTTPClient *http.Client
}

// Client calls the aggregation API through the Plaid SDK.
type Client struct {
	baseURL string
	api     *sdk.APIClient
}

// NewClient creates a Client for the configured environment.
func NewClient(cfg Config) (*Client, error) {
	base := cfg.BaseURL
	if base == "" {
		var ok bool
		base, ok = hosts[cfg.Environment]
		if !ok {
			return nil, fmt.Errorf("NewClient: unknown environment %q", cfg.Environment)
		}
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}

	conf := sdk.NewConfiguration()
	conf.AddDefaultHeader("PLAID-CLIENT-ID", cfg.ClientID)
	conf.AddDefaultHeader("PLAID-SECRET", cfg.Secret)
	conf.UseEnvironment(sdk.Environment(base))
	conf.HTTPClient = hc

	return &Client{baseURL: base, api: sdk.NewAPIClient(conf)}, nil
}

// APIError is the error body returned with non-200 responses.
type APIError struct {
	StatusCode     int    `json:"-"`
	ErrorType      string `json:"error_type"`
	ErrorCode      string `json:"error_code"`
	ErrorMessage   string `json:"error_message"`
	DisplayMessage string `json:"display_message"`
	RequestID      string `json:"request_id"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("plaid: %d %s/%s: %s", e.StatusCode, e.ErrorType, e.ErrorCode, e.ErrorMessage)
}

// Item describes a linked item.
type Item struct {
	ItemID        string `json:"item_id"`
	InstitutionID string `json:"institution_id"`
}

// Institution is institution metadata.
type Institution struct {
	InstitutionID string `json:"institution_id"`
	Name          string `json:"name"`
	// Logo is a base64 PNG when present.
	Logo string `json:"logo"`
	URL  string `json:"url"`
}

// Balances are the balances reported for an account; any of them may be null.
type Balances struct {
	Current         decimal.NullDecimal `json:"current"`
	Available       decimal.NullDecimal `json:"available"`
	Limit           decimal.NullDecimal `json:"limit"`
	ISOCurrencyCode string              `json:"iso_currency_code"`
}

// Account is an account as fetched from the API.
type Account struct {
	AccountID    string   `json:"account_id"`
	Name         string   `json:"name"`
	OfficialName string   `json:"official_name"`
	Mask         string   `json:"mask"`
	Type         string   `json:"type"`
	Subtype      string   `json:"subtype"`
	Balances     Balances `json:"balances"`
}

// MatchKey implements reconcile.Keyed.
func (a Account) MatchKey() reconcile.Key {
	return reconcile.Key{Mask: a.Mask, Type: a.Type, Subtype: a.Subtype}
}

// ExchangeResult holds the credentials of a newly linked item.
type ExchangeResult struct {
	AccessToken string `json:"access_token"`
	ItemID      string `json:"item_id"`
	RequestID   string `json:"request_id"`
}

// ExchangePublicToken trades a link public token for an access token.
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (*ExchangeResult, error) {
	req := sdk.NewItemPublicTokenExchangeRequest(publicToken)
	resp, httpResp, err := c.api.PlaidApi.ItemPublicTokenExchange(ctx).ItemPublicTokenExchangeRequest(*req).Execute()
	if err != nil {
		return nil, fmt.Errorf("ExchangePublicToken: %w", toAPIError(httpResp, err))
	}
	return &ExchangeResult{
		AccessToken: resp.GetAccessToken(),
		ItemID:      resp.GetItemId(),
		RequestID:   resp.GetRequestId(),
	}, nil
}

// GetItem returns the item behind an access token.
func (c *Client) GetItem(ctx context.Context, accessToken string) (*Item, error) {
	req := sdk.NewItemGetRequest(accessToken)
	resp, httpResp, err := c.api.PlaidApi.ItemGet(ctx).ItemGetRequest(*req).Execute()
	if err != nil {
		return nil, fmt.Errorf("GetItem: %w", toAPIError(httpResp, err))
	}
	item := resp.GetItem()
	return &Item{ItemID: item.GetItemId(), InstitutionID: item.GetInstitutionId()}, nil
}

// GetInstitution returns institution metadata including the logo.
func (c *Client) GetInstitution(ctx context.Context, institutionID string, countryCodes []string) (*Institution, error) {
	codes := make([]sdk.CountryCode, 0, len(countryCodes))
	for _, cc := range countryCodes {
		codes = append(codes, sdk.CountryCode(cc))
	}
	req := sdk.NewInstitutionsGetByIdRequest(institutionID, codes)
	req.SetOptions(sdk.InstitutionsGetByIdRequestOptions{IncludeOptionalMetadata: sdk.PtrBool(true)})

	resp, httpResp, err := c.api.PlaidApi.InstitutionsGetById(ctx).InstitutionsGetByIdRequest(*req).Execute()
	if err != nil {
		return nil, fmt.Errorf("GetInstitution: %w", toAPIError(httpResp, err))
	}
	inst := resp.GetInstitution()
	return &Institution{
		InstitutionID: inst.GetInstitutionId(),
		Name:          inst.GetName(),
		Logo:          inst.GetLogo(),
		URL:           inst.GetUrl(),
	}, nil
}

// GetAccounts returns the accounts of an item.
func (c *Client) GetAccounts(ctx context.Context, accessToken string) ([]Account, error) {
	req := sdk.NewAccountsGetRequest(accessToken)
	resp, httpResp, err := c.api.PlaidApi.AccountsGet(ctx).AccountsGetRequest(*req).Execute()
	if err != nil {
		return nil, fmt.Errorf("GetAccounts: %w", toAPIError(httpResp, err))
	}

	fetched := resp.GetAccounts()
	accts := make([]Account, 0, len(fetched))
	for i := range fetched {
		accts = append(accts, accountFromSDK(&fetched[i]))
	}
	return accts, nil
}

func accountFromSDK(a *sdk.AccountBase) Account {
	b := a.GetBalances()
	return Account{
		AccountID:    a.GetAccountId(),
		Name:         a.GetName(),
		OfficialName: a.GetOfficialName(),
		Mask:         a.GetMask(),
		Type:         string(a.GetType()),
		Subtype:      string(a.GetSubtype()),
		Balances: Balances{
			Current:         nullDecimal(b.GetCurrentOk()),
			Available:       nullDecimal(b.GetAvailableOk()),
			Limit:           nullDecimal(b.GetLimitOk()),
			ISOCurrencyCode: b.GetIsoCurrencyCode(),
		},
	}
}

func nullDecimal(v *float64, ok bool) decimal.NullDecimal {
	if !ok || v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(*v))
}

// toAPIError maps an SDK error carrying a response body to *APIError.
// Transport errors are returned unchanged.
func toAPIError(httpResp *http.Response, err error) error {
	var withBody interface{ Body() []byte }
	if !errors.As(err, &withBody) {
		return err
	}
	apiErr := &APIError{}
	if httpResp != nil {
		apiErr.StatusCode = httpResp.StatusCode
	}
	body := withBody.Body()
	if jerr := json.Unmarshal(body, apiErr); jerr != nil || apiErr.ErrorCode == "" {
		apiErr.ErrorType = "API_ERROR"
		apiErr.ErrorMessage = strings.TrimSpace(string(body))
	}
	return apiErr
}
