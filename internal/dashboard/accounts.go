package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/dvloznov/finance-dashboard/internal/accounts"
	"github.com/dvloznov/finance-dashboard/internal/store"
	"github.com/rs/zerolog"
)

// AccountService serves the linked-accounts page.
type AccountService struct {
	repo store.AccountRepository
	log  zerolog.Logger
}

// NewAccountService creates an AccountService.
func NewAccountService(repo store.AccountRepository, log zerolog.Logger) *AccountService {
	return &AccountService{
		repo: repo,
		log:  log.With().Str("component", "account_service").Logger(),
	}
}

// Summary groups the stored accounts by institution and computes net worth.
func (s *AccountService) Summary(ctx context.Context, showHidden bool) (accounts.Summary, error) {
	accts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return accounts.Summary{}, fmt.Errorf("Summary: %w", err)
	}
	return accounts.Summarize(accts, showHidden), nil
}

// Disconnect removes an institution and everything linked through it.
// It returns store.ErrNotFound when the institution had no accounts.
func (s *AccountService) Disconnect(ctx context.Context, institutionID string) (int, error) {
	institutionID = strings.TrimSpace(institutionID)
	if institutionID == "" {
		return 0, fmt.Errorf("Disconnect: %w: institution id is required", ErrInvalidInput)
	}

	n, err := s.repo.DeleteInstitution(ctx, institutionID)
	if err != nil {
		return 0, fmt.Errorf("Disconnect: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("Disconnect: institution %s: %w", institutionID, store.ErrNotFound)
	}

	s.log.Info().Str("institution_id", institutionID).Int("accounts", n).Msg("Institution disconnected")
	return n, nil
}
