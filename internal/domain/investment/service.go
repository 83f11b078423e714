// Package investment reads holdings and investment activity live from the
// provider. Nothing is stored locally.
package investment

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"finboard/internal/domain/institution"
	"finboard/internal/domain/transaction"
	"finboard/internal/infrastructure/plaid"
	"finboard/internal/shared/errs"
)

// unsupportedCodes mark items that simply have no investment data.
var unsupportedCodes = []string{
	plaid.CodeProductNotReady,
	plaid.CodeProductsNotSupported,
	plaid.CodeNoInvestmentAccounts,
}

type Service struct {
	client       plaid.ClientInterface
	institutions institution.Repository
	concurrency  int
	now          func() time.Time
}

func NewService(client plaid.ClientInterface, institutions institution.Repository, concurrency int) *Service {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		client:       client,
		institutions: institutions,
		concurrency:  concurrency,
		now:          time.Now,
	}
}

// Holdings collects positions across every linked institution. Items that do
// not support investments, or whose request fails, are left out.
func (s *Service) Holdings(ctx context.Context, userID int64) ([]Holding, error) {
	insts, err := s.institutions.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list institutions: %w", err)
	}

	perItem := make([][]Holding, len(insts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, inst := range insts {
		g.Go(func() error {
			resp, err := s.client.GetInvestmentHoldings(gctx, inst.AccessToken)
			if err != nil {
				s.logSkipped(gctx, "holdings", inst, err)
				return nil
			}
			perItem[i] = enrichHoldings(resp)
			return nil
		})
	}
	_ = g.Wait()

	holdings := []Holding{}
	for _, h := range perItem {
		holdings = append(holdings, h...)
	}
	return holdings, nil
}

// Transactions collects investment activity between start and end
// (YYYY-MM-DD, inclusive) across every linked institution, newest first.
// Empty bounds default to the last DefaultWindowDays days.
func (s *Service) Transactions(ctx context.Context, userID int64, start, end string) ([]Transaction, error) {
	from, to, err := s.window(start, end)
	if err != nil {
		return nil, err
	}

	insts, err := s.institutions.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list institutions: %w", err)
	}

	perItem := make([][]Transaction, len(insts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, inst := range insts {
		g.Go(func() error {
			resp, err := s.client.GetInvestmentTransactions(gctx, inst.AccessToken, from, to)
			if err != nil {
				s.logSkipped(gctx, "investment transactions", inst, err)
				return nil
			}
			perItem[i] = enrichTransactions(resp)
			return nil
		})
	}
	_ = g.Wait()

	txns := []Transaction{}
	for _, t := range perItem {
		txns = append(txns, t...)
	}
	sort.SliceStable(txns, func(i, j int) bool { return txns[i].Date > txns[j].Date })
	return txns, nil
}

func (s *Service) window(start, end string) (time.Time, time.Time, error) {
	today := s.now().UTC()
	to := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	from := to.AddDate(0, 0, -DefaultWindowDays)

	var err error
	if end != "" {
		if to, err = time.Parse(transaction.DateLayout, end); err != nil {
			return time.Time{}, time.Time{}, errs.Validation("end_date must be a YYYY-MM-DD date")
		}
	}
	if start != "" {
		if from, err = time.Parse(transaction.DateLayout, start); err != nil {
			return time.Time{}, time.Time{}, errs.Validation("start_date must be a YYYY-MM-DD date")
		}
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, errs.Validation("start_date must not be after end_date")
	}
	return from, to, nil
}

func (s *Service) logSkipped(ctx context.Context, what string, inst *institution.Institution, err error) {
	if plaid.HasErrorCode(err, unsupportedCodes...) {
		slog.DebugContext(ctx, "institution has no "+what, "institution_id", inst.ID)
		return
	}
	slog.WarnContext(ctx, "failed to fetch "+what,
		"user_id", inst.UserID,
		"institution_id", inst.ID,
		"error", err,
	)
}

func enrichHoldings(resp *plaid.HoldingsResponse) []Holding {
	securities := make(map[string]plaid.Security, len(resp.Securities))
	for _, sec := range resp.Securities {
		securities[sec.SecurityID] = sec
	}

	out := make([]Holding, 0, len(resp.Holdings))
	for _, h := range resp.Holdings {
		sec, found := securities[h.SecurityID]

		price := h.InstitutionPrice
		if found && sec.ClosePrice.Valid {
			price = sec.ClosePrice.Decimal
		}

		holding := Holding{
			AccountID:  h.AccountID,
			SecurityID: h.SecurityID,
			Symbol:     holdingSymbol(sec),
			Name:       "Unknown Security",
			Type:       "other",
			Quantity:   h.Quantity,
			Price:      price,
			Value:      h.InstitutionValue,
			CostBasis:  h.CostBasis,
		}
		if sec.Name != nil && *sec.Name != "" {
			holding.Name = *sec.Name
		}
		if sec.Type != nil && *sec.Type != "" {
			holding.Type = *sec.Type
		}
		if found && sec.ClosePrice.Valid {
			holding.Change = changePercent(sec.ClosePrice.Decimal, h.CostBasis, h.Quantity)
		}
		out = append(out, holding)
	}
	return out
}

// holdingSymbol falls back from the ticker to the first five characters of
// the security name.
func holdingSymbol(sec plaid.Security) string {
	if sec.TickerSymbol != nil && *sec.TickerSymbol != "" {
		return *sec.TickerSymbol
	}
	if sec.Name != nil && *sec.Name != "" {
		r := []rune(*sec.Name)
		if len(r) > 5 {
			r = r[:5]
		}
		return string(r)
	}
	return "N/A"
}

func changePercent(closePrice decimal.Decimal, costBasis decimal.NullDecimal, quantity decimal.Decimal) decimal.NullDecimal {
	if !costBasis.Valid || costBasis.Decimal.IsZero() || quantity.IsZero() {
		return decimal.NullDecimal{}
	}
	unitCost := costBasis.Decimal.Div(quantity)
	change := closePrice.Sub(unitCost).Div(unitCost).Mul(decimal.NewFromInt(100)).Round(2)
	return decimal.NewNullDecimal(change)
}

func enrichTransactions(resp *plaid.InvestmentTransactionsResponse) []Transaction {
	securities := make(map[string]plaid.Security, len(resp.Securities))
	for _, sec := range resp.Securities {
		securities[sec.SecurityID] = sec
	}

	out := make([]Transaction, 0, len(resp.InvestmentTransactions))
	for _, t := range resp.InvestmentTransactions {
		txn := Transaction{
			ID:        t.InvestmentTransactionID,
			AccountID: t.AccountID,
			Date:      t.Date,
			Name:      t.Name,
			Type:      t.Type,
			Subtype:   t.Subtype,
			Symbol:    "N/A",
			Quantity:  t.Quantity,
			Price:     t.Price,
			Amount:    t.Amount,
			Fees:      t.Fees,
		}
		if t.SecurityID != nil {
			if sec, ok := securities[*t.SecurityID]; ok {
				if sec.TickerSymbol != nil && *sec.TickerSymbol != "" {
					txn.Symbol = *sec.TickerSymbol
				}
				txn.SecurityName = sec.Name
			}
		}
		out = append(out, txn)
	}
	return out
}
