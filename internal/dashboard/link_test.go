package dashboard

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dvloznov/finance-dashboard/internal/accounts"
	"github.com/dvloznov/finance-dashboard/internal/plaid"
	"github.com/dvloznov/finance-dashboard/internal/store"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newAggregator(fetched []plaid.Account) *MockAggregator {
	return &MockAggregator{
		ExchangePublicTokenFunc: func(ctx context.Context, publicToken string) (*plaid.ExchangeResult, error) {
			return &plaid.ExchangeResult{AccessToken: "access-1", ItemID: "plaid-item-2"}, nil
		},
		GetItemFunc: func(ctx context.Context, accessToken string) (*plaid.Item, error) {
			return &plaid.Item{ItemID: "plaid-item-2", InstitutionID: "ins_3"}, nil
		},
		GetInstitutionFunc: func(ctx context.Context, institutionID string, countryCodes []string) (*plaid.Institution, error) {
			return &plaid.Institution{InstitutionID: institutionID, Name: "Chase", Logo: "iVBORw0KGgo="}, nil
		},
		GetAccountsFunc: func(ctx context.Context, accessToken string) ([]plaid.Account, error) {
			return fetched, nil
		},
	}
}

func newTestLinkService(agg Aggregator, repo store.AccountRepository) *LinkService {
	s := NewLinkService(agg, repo, LinkOptions{}, zerolog.Nop())
	n := 0
	s.newID = func() string { n++; return fmt.Sprintf("id-%d", n) }
	s.now = func() time.Time { return time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC) }
	return s
}

func TestLinkService_Link(t *testing.T) {
	fetched := []plaid.Account{
		{AccountID: "new-chk", Name: "Plaid Checking", Mask: "0000", Type: "depository", Subtype: "checking",
			Balances: plaid.Balances{Current: decimal.NewNullDecimal(decimal.NewFromInt(110))}},
		{AccountID: "new-cc", Name: "Plaid Credit Card", Mask: "3333", Type: "credit", Subtype: "credit card"},
	}
	stored := []*accounts.Account{
		{ID: "acct-1", ExternalID: "old-chk", ItemID: "item-1", InstitutionID: "ins_3", Name: "Old Checking",
			Nickname: "Bills", Mask: "0000", Type: "depository", Subtype: "checking", Hidden: true},
	}

	var item *accounts.Item
	var updated, created []*accounts.Account
	var balances []*accounts.Balance
	repo := &MockAccountRepository{
		CreateItemFunc: func(ctx context.Context, it *accounts.Item) error {
			item = it
			return nil
		},
		ListAccountsByInstitutionFunc: func(ctx context.Context, institutionID string) ([]*accounts.Account, error) {
			require.Equal(t, "ins_3", institutionID)
			return stored, nil
		},
		UpdateAccountFunc: func(ctx context.Context, a *accounts.Account) error {
			updated = append(updated, a)
			return nil
		},
		CreateAccountFunc: func(ctx context.Context, a *accounts.Account) error {
			created = append(created, a)
			return nil
		},
		RecordBalanceFunc: func(ctx context.Context, b *accounts.Balance) error {
			balances = append(balances, b)
			return nil
		},
	}

	res, err := newTestLinkService(newAggregator(fetched), repo).Link(context.Background(), "public-sandbox-1")
	require.NoError(t, err)

	require.Equal(t, "id-1", item.ID)
	require.Equal(t, "plaid-item-2", item.ExternalID)
	require.Equal(t, "access-1", item.AccessToken)
	require.Equal(t, "data:image/png;base64,iVBORw0KGgo=", item.InstitutionLogo)

	require.Equal(t, 1, res.Updated)
	require.Equal(t, 1, res.Created)
	require.Equal(t, 1, res.Balances)
	require.Len(t, res.Accounts, 2)

	require.Len(t, updated, 1)
	require.Equal(t, "acct-1", updated[0].ID)
	require.Equal(t, "id-1", updated[0].ItemID)
	require.Equal(t, "new-chk", updated[0].ExternalID)
	require.Equal(t, "Plaid Checking", updated[0].Name)
	require.Equal(t, "Bills", updated[0].Nickname)
	require.True(t, updated[0].Hidden)
	require.Equal(t, "item-1", stored[0].ItemID, "stored slice must not be modified")

	require.Len(t, created, 1)
	require.Equal(t, "new-cc", created[0].ExternalID)
	require.Equal(t, "Chase", created[0].Institution)

	require.Len(t, balances, 1)
	require.Equal(t, "acct-1", balances[0].AccountID)
	require.True(t, balances[0].Current.Equal(decimal.NewFromInt(110)))
}

func TestLinkService_AbsentMaskCreatesNewAccount(t *testing.T) {
	fetched := []plaid.Account{{AccountID: "x", Name: "Brokerage", Type: "investment"}}
	stored := []*accounts.Account{{ID: "acct-1", Type: "investment"}}

	var created int
	repo := &MockAccountRepository{
		ListAccountsByInstitutionFunc: func(ctx context.Context, institutionID string) ([]*accounts.Account, error) {
			return stored, nil
		},
		UpdateAccountFunc: func(ctx context.Context, a *accounts.Account) error {
			t.Fatal("an account without a mask must never be matched")
			return nil
		},
		CreateAccountFunc: func(ctx context.Context, a *accounts.Account) error {
			created++
			return nil
		},
	}

	res, err := newTestLinkService(newAggregator(fetched), repo).Link(context.Background(), "tok")
	require.NoError(t, err)
	require.Equal(t, 1, created)
	require.Equal(t, 0, res.Updated)
}

func TestLinkService_StoredAccountClaimedOnce(t *testing.T) {
	fetched := []plaid.Account{
		{AccountID: "ext-A", Name: "Checking A", Mask: "0000", Type: "depository", Subtype: "checking"},
		{AccountID: "ext-B", Name: "Checking B", Mask: "0000", Type: "depository", Subtype: "checking"},
	}
	stored := []*accounts.Account{{ID: "acct-1", ExternalID: "old", Mask: "0000", Type: "depository", Subtype: "checking"}}

	rows := map[string]string{"acct-1": "old"}
	repo := &MockAccountRepository{
		ListAccountsByInstitutionFunc: func(ctx context.Context, institutionID string) ([]*accounts.Account, error) {
			return stored, nil
		},
		UpdateAccountFunc: func(ctx context.Context, a *accounts.Account) error {
			rows[a.ID] = a.ExternalID
			return nil
		},
		CreateAccountFunc: func(ctx context.Context, a *accounts.Account) error {
			rows[a.ID] = a.ExternalID
			return nil
		},
	}

	res, err := newTestLinkService(newAggregator(fetched), repo).Link(context.Background(), "tok")
	require.NoError(t, err)
	require.Equal(t, 1, res.Updated)
	require.Equal(t, 1, res.Created)
	require.Equal(t, "ext-A", rows["acct-1"])
	require.Len(t, rows, 2)

	var externalIDs []string
	for _, a := range res.Accounts {
		externalIDs = append(externalIDs, a.ExternalID)
	}
	require.ElementsMatch(t, []string{"ext-A", "ext-B"}, externalIDs)
}

func TestLinkService_Errors(t *testing.T) {
	_, err := newTestLinkService(newAggregator(nil), &MockAccountRepository{}).Link(context.Background(), "")
	require.ErrorIs(t, err, ErrInvalidInput)

	apiErr := &plaid.APIError{StatusCode: 400, ErrorCode: "INVALID_PUBLIC_TOKEN"}
	agg := newAggregator(nil)
	agg.ExchangePublicTokenFunc = func(ctx context.Context, publicToken string) (*plaid.ExchangeResult, error) {
		return nil, apiErr
	}
	_, err = newTestLinkService(agg, &MockAccountRepository{}).Link(context.Background(), "bad")
	var got *plaid.APIError
	require.True(t, errors.As(err, &got))

	repo := &MockAccountRepository{CreateItemFunc: func(ctx context.Context, it *accounts.Item) error {
		return errors.New("insert failed")
	}}
	_, err = newTestLinkService(newAggregator(nil), repo).Link(context.Background(), "tok")
	require.ErrorContains(t, err, "create item")
}

func TestAccountService_Summary(t *testing.T) {
	repo := &MockAccountRepository{ListAccountsFunc: func(ctx context.Context) ([]*accounts.Account, error) {
		return []*accounts.Account{
			{ID: "1", InstitutionID: "ins_3", Institution: "Chase", Type: "depository", Balance: &accounts.Balance{Current: decimal.NewFromInt(500)}},
			{ID: "2", InstitutionID: "ins_3", Institution: "Chase", Type: "credit", Balance: &accounts.Balance{Current: decimal.NewFromInt(200)}},
			{ID: "3", InstitutionID: "ins_9", Institution: "Ally", Type: "depository", Hidden: true, Balance: &accounts.Balance{Current: decimal.NewFromInt(1000)}},
		}, nil
	}}

	sum, err := NewAccountService(repo, zerolog.Nop()).Summary(context.Background(), false)
	require.NoError(t, err)
	require.True(t, sum.NetWorth.Equal(decimal.NewFromInt(300)))
	require.Len(t, sum.Hidden, 1)
}

func TestAccountService_Disconnect(t *testing.T) {
	repo := &MockAccountRepository{DeleteInstitutionFunc: func(ctx context.Context, institutionID string) (int, error) {
		if institutionID == "ins_3" {
			return 2, nil
		}
		return 0, nil
	}}
	svc := NewAccountService(repo, zerolog.Nop())

	n, err := svc.Disconnect(context.Background(), "ins_3")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	_, err = svc.Disconnect(context.Background(), "ins_404")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.Disconnect(context.Background(), "")
	require.ErrorIs(t, err, ErrInvalidInput)
}
