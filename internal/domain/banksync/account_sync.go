package banksync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"finboard/internal/domain/account"
	"finboard/internal/domain/institution"
	"finboard/internal/infrastructure/plaid"
)

// AccountSyncService links new institutions and refreshes account balances.
type AccountSyncService struct {
	client          plaid.ClientInterface
	institutionRepo institution.Repository
	accountRepo     account.Repository
	tx              Transactor
}

func NewAccountSyncService(
	client plaid.ClientInterface,
	institutionRepo institution.Repository,
	accountRepo account.Repository,
	tx Transactor,
) *AccountSyncService {
	return &AccountSyncService{
		client:          client,
		institutionRepo: institutionRepo,
		accountRepo:     accountRepo,
		tx:              tx,
	}
}

// CreateLinkToken returns a short-lived token the client uses to open Link.
func (s *AccountSyncService) CreateLinkToken(ctx context.Context, userID int64) (string, error) {
	return s.client.CreateLinkToken(ctx, strconv.FormatInt(userID, 10))
}

// revokeTimeout bounds the best-effort item removal after a failed link.
const revokeTimeout = 10 * time.Second

// LinkInstitution exchanges the public token from Link for a long-lived
// access token, then stores the institution and its accounts in one
// transaction. When nothing is stored the new item is removed at the
// provider again.
func (s *AccountSyncService) LinkInstitution(ctx context.Context, userID int64, publicToken string, meta LinkMetadata) (*LinkResult, error) {
	publicToken = strings.TrimSpace(publicToken)
	if publicToken == "" {
		return nil, ErrPublicTokenEmpty
	}

	exchange, err := s.client.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return nil, err
	}

	providerAccounts, err := s.client.GetAccounts(ctx, exchange.AccessToken)
	if err != nil {
		s.revokeItem(ctx, exchange)
		return nil, err
	}

	result := &LinkResult{}
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		inst, err := s.institutionRepo.Create(ctx, institution.CreateParams{
			ID:              uuid.NewString(),
			UserID:          userID,
			AccessToken:     exchange.AccessToken,
			ItemID:          exchange.ItemID,
			InstitutionID:   meta.InstitutionID,
			InstitutionName: meta.InstitutionName,
		})
		if err != nil {
			return fmt.Errorf("store institution: %w", err)
		}
		result.Institution = inst

		for _, pa := range providerAccounts {
			params := accountParams(userID, inst.ID, pa)
			if err := params.Validate(); err != nil {
				return fmt.Errorf("account %s: %w", pa.AccountID, err)
			}
			acc, err := s.accountRepo.Upsert(ctx, params)
			if err != nil {
				return fmt.Errorf("store account %s: %w", pa.AccountID, err)
			}
			acc.InstitutionName = inst.InstitutionName
			result.Accounts = append(result.Accounts, acc)
		}
		return nil
	})
	if err != nil {
		// A duplicate item is the stored one; revoking it would break that link.
		if !errors.Is(err, institution.ErrAlreadyLinked) {
			s.revokeItem(ctx, exchange)
		}
		return nil, err
	}

	slog.InfoContext(ctx, "institution linked",
		"user_id", userID,
		"institution_id", result.Institution.ID,
		"accounts", len(result.Accounts),
	)
	return result, nil
}

// revokeItem removes an item that has no local record. Failures are logged.
func (s *AccountSyncService) revokeItem(ctx context.Context, exchange *plaid.ExchangeResult) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), revokeTimeout)
	defer cancel()
	if err := s.client.RemoveItem(ctx, exchange.AccessToken); err != nil {
		slog.WarnContext(ctx, "failed to remove unlinked item at provider",
			"item_id", exchange.ItemID,
			"error", err,
		)
	}
}

// RefreshBalances fetches current balances for every institution of the user
// and returns the refreshed account list.
func (s *AccountSyncService) RefreshBalances(ctx context.Context, userID int64) ([]*account.Account, error) {
	institutions, err := s.institutionRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list institutions: %w", err)
	}
	if len(institutions) == 0 {
		return nil, ErrNoLinkedAccounts
	}

	for _, inst := range institutions {
		providerAccounts, err := s.client.GetAccounts(ctx, inst.AccessToken)
		if err != nil {
			return nil, err
		}

		for _, pa := range providerAccounts {
			updated, err := s.accountRepo.UpdateBalances(ctx, userID, account.BalanceUpdate{
				InstitutionID: inst.ID,
				AccountID:     pa.AccountID,
				Current:       pa.Balances.Current,
				Available:     pa.Balances.Available,
			})
			if err != nil {
				return nil, fmt.Errorf("update balances for %s: %w", pa.AccountID, err)
			}
			if !updated {
				slog.DebugContext(ctx, "balance for unknown account ignored",
					"institution_id", inst.ID,
					"account_id", pa.AccountID,
				)
			}
		}
	}

	return s.accountRepo.ListByUserID(ctx, userID)
}

func accountParams(userID int64, institutionID string, pa plaid.Account) account.UpsertParams {
	return account.UpsertParams{
		ID:               uuid.NewString(),
		InstitutionID:    institutionID,
		UserID:           userID,
		AccountID:        pa.AccountID,
		Name:             pa.Name,
		OfficialName:     pa.OfficialName,
		Type:             account.NormalizeType(pa.Type),
		Subtype:          pa.Subtype,
		Mask:             pa.Mask,
		CurrentBalance:   pa.Balances.Current,
		AvailableBalance: pa.Balances.Available,
		IsoCurrencyCode:  pa.Balances.IsoCurrencyCode,
	}
}
