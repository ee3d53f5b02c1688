package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/finance-dashboard/internal/accounts"
	"github.com/dvloznov/finance-dashboard/internal/plaid"
	"github.com/dvloznov/finance-dashboard/internal/reconcile"
	"github.com/dvloznov/finance-dashboard/internal/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Aggregator is the account-aggregation API used to link institutions.
type Aggregator interface {
	ExchangePublicToken(ctx context.Context, publicToken string) (*plaid.ExchangeResult, error)
	GetItem(ctx context.Context, accessToken string) (*plaid.Item, error)
	GetInstitution(ctx context.Context, institutionID string, countryCodes []string) (*plaid.Institution, error)
	GetAccounts(ctx context.Context, accessToken string) ([]plaid.Account, error)
}

// LinkOptions configures a LinkService.
type LinkOptions struct {
	CountryCodes  []string
	FallbackLogos map[string]string
}

// LinkResult summarizes one link.
type LinkResult struct {
	ItemID          string              `json:"itemId"`
	InstitutionID   string              `json:"institutionId"`
	InstitutionName string              `json:"institutionName"`
	Created         int                 `json:"created"`
	Updated         int                 `json:"updated"`
	Balances        int                 `json:"balances"`
	Accounts        []*accounts.Account `json:"accounts"`
}

// LinkService runs the public-token exchange flow.
type LinkService struct {
	agg   Aggregator
	repo  store.AccountRepository
	opts  LinkOptions
	log   zerolog.Logger
	now   func() time.Time
	newID func() string
}

// NewLinkService creates a LinkService.
func NewLinkService(agg Aggregator, repo store.AccountRepository, opts LinkOptions, log zerolog.Logger) *LinkService {
	if len(opts.CountryCodes) == 0 {
		opts.CountryCodes = []string{"US"}
	}
	return &LinkService{
		agg:   agg,
		repo:  repo,
		opts:  opts,
		log:   log.With().Str("component", "link_service").Logger(),
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
}

// Link exchanges publicToken, stores a new item and reconciles the fetched
// accounts against the accounts already stored for the institution.
// Matched accounts are re-pointed at the new item instead of duplicated; a
// stored account is re-pointed at most once per link.
func (s *LinkService) Link(ctx context.Context, publicToken string) (*LinkResult, error) {
	if strings.TrimSpace(publicToken) == "" {
		return nil, fmt.Errorf("Link: %w: public token is required", ErrInvalidInput)
	}

	exch, err := s.agg.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return nil, fmt.Errorf("Link: exchange token: %w", err)
	}

	pItem, err := s.agg.GetItem(ctx, exch.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("Link: get item: %w", err)
	}

	inst, err := s.agg.GetInstitution(ctx, pItem.InstitutionID, s.opts.CountryCodes)
	if err != nil {
		return nil, fmt.Errorf("Link: get institution %s: %w", pItem.InstitutionID, err)
	}

	now := s.now()
	item := &accounts.Item{
		ID:              s.newID(),
		ExternalID:      exch.ItemID,
		AccessToken:     exch.AccessToken,
		InstitutionID:   inst.InstitutionID,
		InstitutionName: inst.Name,
		InstitutionLogo: accounts.FormatLogoURL(inst.Logo, inst.InstitutionID, s.opts.FallbackLogos),
		CreatedAt:       now,
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("Link: create item: %w", err)
	}

	fetched, err := s.agg.GetAccounts(ctx, exch.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("Link: get accounts: %w", err)
	}

	stored, err := s.repo.ListAccountsByInstitution(ctx, item.InstitutionID)
	if err != nil {
		return nil, fmt.Errorf("Link: list stored accounts: %w", err)
	}

	log := s.log.With().Str("item_id", item.ID).Str("institution_id", item.InstitutionID).Logger()

	plan := reconcile.BuildPlan(fetched, stored)
	if shared := plan.SharedMatches(); len(shared) > 0 {
		log.Warn().Ints("stored_indexes", shared).Msg("Several fetched accounts matched the same stored account, creating the extra ones")
	}
	plan = plan.OneToOne()

	res := &LinkResult{
		ItemID:          item.ID,
		InstitutionID:   item.InstitutionID,
		InstitutionName: item.InstitutionName,
		Accounts:        []*accounts.Account{},
	}

	for _, m := range plan.Matched {
		acct := *m.Stored
		acct.ItemID = item.ID
		acct.ExternalID = m.Fetched.AccountID
		acct.Name = m.Fetched.Name
		acct.Institution = item.InstitutionName
		acct.InstitutionLogo = item.InstitutionLogo
		acct.UpdatedAt = now
		acct.Balance = nil
		if err := s.repo.UpdateAccount(ctx, &acct); err != nil {
			return nil, fmt.Errorf("Link: update account %s: %w", acct.ID, err)
		}
		res.Updated++
		if err := s.recordBalance(ctx, &acct, m.Fetched.Balances, now, res); err != nil {
			return nil, err
		}
		res.Accounts = append(res.Accounts, &acct)
	}

	for _, f := range plan.New {
		acct := &accounts.Account{
			ID:              s.newID(),
			ExternalID:      f.AccountID,
			ItemID:          item.ID,
			InstitutionID:   item.InstitutionID,
			Institution:     item.InstitutionName,
			InstitutionLogo: item.InstitutionLogo,
			Name:            f.Name,
			Type:            f.Type,
			Subtype:         f.Subtype,
			Mask:            f.Mask,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.repo.CreateAccount(ctx, acct); err != nil {
			return nil, fmt.Errorf("Link: create account: %w", err)
		}
		res.Created++
		if err := s.recordBalance(ctx, acct, f.Balances, now, res); err != nil {
			return nil, err
		}
		res.Accounts = append(res.Accounts, acct)
	}

	log.Info().Int("created", res.Created).Int("updated", res.Updated).Int("balances", res.Balances).Msg("Institution linked")
	return res, nil
}

// recordBalance stores a snapshot when the API reported a current balance.
func (s *LinkService) recordBalance(ctx context.Context, acct *accounts.Account, b plaid.Balances, now time.Time, res *LinkResult) error {
	if !b.Current.Valid {
		return nil
	}
	bal := &accounts.Balance{
		ID:         s.newID(),
		AccountID:  acct.ID,
		Current:    b.Current.Decimal,
		Available:  b.Available,
		Limit:      b.Limit,
		RecordedAt: now,
	}
	if err := s.repo.RecordBalance(ctx, bal); err != nil {
		return fmt.Errorf("Link: record balance for %s: %w", acct.ID, err)
	}
	acct.Balance = bal
	res.Balances++
	return nil
}
