package pricing

import (
	"context"
	"fmt"
	"time"

	"lotkeeper/internal/core/apperror"
	"lotkeeper/internal/core/id"
	"lotkeeper/internal/core/tx"
	"lotkeeper/internal/core/types"
	"lotkeeper/pkg/logger"
)

// Service manages the cost and price registry and answers quote queries.
type Service struct {
	repo      Repository
	txManager tx.Manager
	cache     QuoteStore
}

// NewService creates a new pricing service. cache may be nil.
func NewService(repo Repository, txManager tx.Manager, cache QuoteStore) *Service {
	if cache == nil {
		cache = NewQuoteCache(nil)
	}
	return &Service{repo: repo, txManager: txManager, cache: cache}
}

// RecordCost creates the cost row for a freshly created stock record.
// Called inside the posting transaction of a receipt.
func (s *Service) RecordCost(ctx context.Context, stockRecordID id.ID, amount types.Money, currency string) (InventoryCost, error) {
	if amount.IsNegative() {
		return InventoryCost{}, apperror.NewValidation("cost amount must not be negative").
			WithDetail("amount", amount)
	}
	cost := NewInventoryCost(stockRecordID, amount, currency)
	if err := cost.ValidateCurrency(ctx); err != nil {
		return InventoryCost{}, err
	}
	if err := s.repo.CreateCost(ctx, cost); err != nil {
		return InventoryCost{}, fmt.Errorf("create cost: %w", err)
	}
	s.invalidateRecordQuotes(ctx, stockRecordID)
	return cost, nil
}

// CorrectCost amends a record's cost amount in place. Cost corrections keep
// no history; the ledger carries the document trail instead.
func (s *Service) CorrectCost(ctx context.Context, stockRecordID id.ID, amount types.Money) error {
	if amount.IsNegative() {
		return apperror.NewValidation("cost amount must not be negative").
			WithDetail("amount", amount)
	}
	if _, err := s.repo.GetCostByRecord(ctx, stockRecordID); err != nil {
		return err
	}
	if err := s.repo.AmendCostAmount(ctx, stockRecordID, amount); err != nil {
		return fmt.Errorf("amend cost: %w", err)
	}
	s.invalidateRecordQuotes(ctx, stockRecordID)
	logger.Info(ctx, "corrected inventory cost",
		"stock_record_id", stockRecordID,
		"amount", amount,
	)
	return nil
}

// CopyCostTo clones the source record's cost onto a destination record.
// Used inside move and transfer transactions so cost basis follows the lot.
// A source without a cost row is tolerated (legacy stock).
func (s *Service) CopyCostTo(ctx context.Context, sourceRecordID, destRecordID id.ID) error {
	cost, err := s.repo.GetCostByRecord(ctx, sourceRecordID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return err
	}
	if err := s.repo.CreateCost(ctx, cost.CopyFor(destRecordID)); err != nil {
		return fmt.Errorf("copy cost: %w", err)
	}
	return nil
}

// CostOf returns the cost row of a stock record.
func (s *Service) CostOf(ctx context.Context, stockRecordID id.ID) (InventoryCost, error) {
	return s.repo.GetCostByRecord(ctx, stockRecordID)
}

// SetPrice opens a new price interval for a stock record. If an interval is
// active at the new start instant it is closed there first, and a backdated
// interval is capped at the start of the next existing one, so intervals of
// one record never overlap. Runs in its own transaction.
func (s *Service) SetPrice(ctx context.Context, stockRecordID id.ID, amount types.Money, currency string, from time.Time, to *time.Time) (StockItemPrice, error) {
	if from.IsZero() {
		from = time.Now().UTC()
	}
	price := NewStockItemPrice(stockRecordID, amount, currency, from, to)
	if err := price.Validate(ctx); err != nil {
		return StockItemPrice{}, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetActivePriceAt(ctx, stockRecordID, from)
		switch {
		case err == nil:
			if !current.EffectiveFrom.Before(from) {
				return apperror.NewValidation("a price interval already starts at or after the new start").
					WithDetail("existing_price_id", current.ID).
					WithDetail("effective_from", current.EffectiveFrom)
			}
			if err := s.repo.ClosePrice(ctx, current.ID, from); err != nil {
				return fmt.Errorf("close active price: %w", err)
			}
		case apperror.HasCode(err, apperror.CodeNoActivePrice):
			// no interval to close
		default:
			return err
		}

		next, err := s.repo.GetNextPriceAfter(ctx, stockRecordID, from)
		switch {
		case err == nil:
			if price.EffectiveTo == nil || next.EffectiveFrom.Before(*price.EffectiveTo) {
				end := next.EffectiveFrom
				price.EffectiveTo = &end
			}
		case apperror.IsNotFound(err):
			// nothing later to collide with
		default:
			return err
		}

		return s.repo.InsertPrice(ctx, price)
	})
	if err != nil {
		return StockItemPrice{}, err
	}

	s.invalidateRecordQuotes(ctx, stockRecordID)
	logger.Info(ctx, "opened price interval",
		"stock_record_id", stockRecordID,
		"price_id", price.ID,
		"amount", amount,
		"effective_from", from,
	)
	return price, nil
}

// EffectivePrice returns the price of a stock record at the given instant.
// A zero `at` means now.
func (s *Service) EffectivePrice(ctx context.Context, stockRecordID id.ID, at time.Time) (StockItemPrice, error) {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return s.repo.GetActivePriceAt(ctx, stockRecordID, at)
}

// PriceHistory returns all price intervals of a record in chronological order.
func (s *Service) PriceHistory(ctx context.Context, stockRecordID id.ID) ([]StockItemPrice, error) {
	return s.repo.ListPricesByRecord(ctx, stockRecordID)
}

// CheapestCost returns the lowest-cost available lot of a product, optionally
// narrowed to a variant and warehouse.
func (s *Service) CheapestCost(ctx context.Context, productID id.ID, variantID, warehouseID *id.ID) (LotQuote, error) {
	key := quoteKey("cost", productID, variantID, warehouseID)
	if q, ok := s.cache.Get(ctx, key); ok {
		return q, nil
	}
	q, err := s.repo.CheapestAvailableCost(ctx, productID, variantID, warehouseID)
	if err != nil {
		return LotQuote{}, err
	}
	s.cache.Set(ctx, key, q)
	return q, nil
}

// DisplayPrice returns the lowest currently-priced available lot of a
// product: the number a storefront shows.
func (s *Service) DisplayPrice(ctx context.Context, productID id.ID, variantID, warehouseID *id.ID) (LotQuote, error) {
	key := quoteKey("price", productID, variantID, warehouseID)
	if q, ok := s.cache.Get(ctx, key); ok {
		return q, nil
	}
	q, err := s.repo.CheapestDisplayPrice(ctx, productID, variantID, warehouseID, time.Now().UTC())
	if err != nil {
		return LotQuote{}, err
	}
	s.cache.Set(ctx, key, q)
	return q, nil
}

// InvalidateQuotes drops cached quotes for a product. Called after posting
// operations that change availability.
func (s *Service) InvalidateQuotes(ctx context.Context, productID id.ID) {
	s.cache.InvalidateProduct(ctx, productID)
}

// invalidateRecordQuotes resolves the record's product and drops its cached
// quotes after a cost or price write. Best effort.
func (s *Service) invalidateRecordQuotes(ctx context.Context, stockRecordID id.ID) {
	productID, err := s.repo.GetRecordProduct(ctx, stockRecordID)
	if err != nil {
		logger.Warn(ctx, "quote invalidation skipped",
			"stock_record_id", stockRecordID,
			"error", err,
		)
		return
	}
	s.cache.InvalidateProduct(ctx, productID)
}
