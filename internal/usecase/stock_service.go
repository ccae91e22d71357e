package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/stocklens/backend/internal/domain"
)

// StockService is the storage-facing layer for stock mutations. Removal
// clamps at zero: partial depletion is a valid real-world outcome, never an
// error. Addition has no upper bound.
type StockService struct {
	stock     domain.StockRepository
	movements domain.MovementRepository
	logger    *zap.Logger
}

// NewStockService creates a stock service with its repositories.
func NewStockService(stock domain.StockRepository, movements domain.MovementRepository, logger *zap.Logger) *StockService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockService{
		stock:     stock,
		movements: movements,
		logger:    logger,
	}
}

// List returns all stock items.
func (s *StockService) List(ctx context.Context) ([]domain.StockItem, error) {
	return s.stock.GetAll(ctx)
}

// Get returns one stock item by id.
func (s *StockService) Get(ctx context.Context, id string) (*domain.StockItem, error) {
	return s.stock.GetByID(ctx, id)
}

// Create registers a new stock item. Name is trimmed; quantity must not be
// negative.
func (s *StockService) Create(ctx context.Context, name string, quantity float64, unit domain.Unit) (*domain.StockItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: item name is required", domain.ErrInvalidRequest)
	}
	if quantity < 0 {
		return nil, fmt.Errorf("%w: initial quantity %s", domain.ErrNonPositiveQuantity, domain.FormatNumber(quantity))
	}

	return s.stock.Create(ctx, name, quantity, unit)
}

// Update replaces a stock item's name, quantity and unit.
func (s *StockService) Update(ctx context.Context, item *domain.StockItem) error {
	if item == nil || item.ID == "" {
		return fmt.Errorf("%w: item id is required", domain.ErrInvalidRequest)
	}
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return fmt.Errorf("%w: item name is required", domain.ErrInvalidRequest)
	}
	if item.Quantity < 0 {
		item.Quantity = 0
	}

	return s.stock.Update(ctx, item)
}

// Delete removes a stock item.
func (s *StockService) Delete(ctx context.Context, id string) error {
	return s.stock.Delete(ctx, id)
}

// AddQuantity increases a stock item's quantity and records an entry
// movement. quantity is expressed in the item's own unit.
func (s *StockService) AddQuantity(ctx context.Context, itemID string, quantity float64, source domain.MovementSource) (*domain.StockItem, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: entry of %s", domain.ErrNonPositiveQuantity, domain.FormatNumber(quantity))
	}

	item, err := s.stock.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	item.Quantity += quantity
	if err := s.stock.Update(ctx, item); err != nil {
		return nil, err
	}

	if err := s.movements.Record(ctx, &domain.StockMovement{
		StockItemID: item.ID,
		Quantity:    quantity,
		Type:        domain.MovementEntry,
		Source:      source,
	}); err != nil {
		s.logger.Error("failed to record stock movement", zap.Error(err),
			zap.String("item", item.ID))
	}

	return item, nil
}

// RemoveQuantity decreases a stock item's quantity, clamping the stored value
// at zero, and records an exit movement for the requested amount.
func (s *StockService) RemoveQuantity(ctx context.Context, itemID string, quantity float64, source domain.MovementSource) (*domain.StockItem, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: exit of %s", domain.ErrNonPositiveQuantity, domain.FormatNumber(quantity))
	}

	item, err := s.stock.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	item.Quantity -= quantity
	if item.Quantity < 0 {
		item.Quantity = 0
	}
	if err := s.stock.Update(ctx, item); err != nil {
		return nil, err
	}

	if err := s.movements.Record(ctx, &domain.StockMovement{
		StockItemID: item.ID,
		Quantity:    quantity,
		Type:        domain.MovementExit,
		Source:      source,
	}); err != nil {
		s.logger.Error("failed to record stock movement", zap.Error(err),
			zap.String("item", item.ID))
	}

	return item, nil
}

// Movements returns the movement ledger for one stock item.
func (s *StockService) Movements(ctx context.Context, itemID string) ([]domain.StockMovement, error) {
	if _, err := s.stock.GetByID(ctx, itemID); err != nil {
		return nil, err
	}
	return s.movements.ListByItem(ctx, itemID)
}

// ApplyReconciliation commits reviewed match results to stock. Matched
// results (exact or converted unit) are applied as entries or exits;
// unmatched and incompatible-unit results are skipped and returned so the
// caller can resolve them manually. Every applicable result is validated
// before the first mutation, so a malformed batch is rejected whole rather
// than left half applied.
func (s *StockService) ApplyReconciliation(
	ctx context.Context,
	results []domain.MatchResult,
	movement domain.MovementType,
	source domain.MovementSource,
) (applied []domain.StockItem, skipped []domain.MatchResult, err error) {
	for _, result := range results {
		if result.Outcome != domain.OutcomeExactUnit && result.Outcome != domain.OutcomeConverted {
			continue
		}
		if result.Matched == nil || result.Matched.ID == "" {
			return nil, nil, fmt.Errorf("%w: result %q has no matched item", domain.ErrInvalidRequest, result.Mention.Name)
		}
		if result.Quantity <= 0 {
			return nil, nil, fmt.Errorf("%w: result %q posts %s", domain.ErrNonPositiveQuantity,
				result.Mention.Name, domain.FormatNumber(result.Quantity))
		}
		if _, err := s.stock.GetByID(ctx, result.Matched.ID); err != nil {
			return nil, nil, fmt.Errorf("validating %q: %w", result.Mention.Name, err)
		}
	}

	for _, result := range results {
		switch result.Outcome {
		case domain.OutcomeExactUnit, domain.OutcomeConverted:
			var item *domain.StockItem
			if movement == domain.MovementEntry {
				item, err = s.AddQuantity(ctx, result.Matched.ID, result.Quantity, source)
			} else {
				item, err = s.RemoveQuantity(ctx, result.Matched.ID, result.Quantity, source)
			}
			if err != nil {
				// Mutations already committed stand; report them with the error.
				return applied, skipped, fmt.Errorf("applying %q: %w", result.Mention.Name, err)
			}
			applied = append(applied, *item)

		case domain.OutcomeIncompatibleUnit, domain.OutcomeUnmatched:
			skipped = append(skipped, result)

		default:
			skipped = append(skipped, result)
		}
	}

	return applied, skipped, nil
}
