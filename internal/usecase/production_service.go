package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/stocklens/backend/internal/domain"
)

// ProductionService computes how many units of each selected recipe can be
// produced from current stock. Whole batches only: a recipe yielding 10 units
// per batch with stock for 1.7 batches produces 10, not 17.
type ProductionService struct {
	recipes   domain.RecipeRepository
	stock     domain.StockRepository
	selection domain.SelectionRepository
	logger    *zap.Logger
}

// NewProductionService creates a production potential service.
func NewProductionService(
	recipes domain.RecipeRepository,
	stock domain.StockRepository,
	selection domain.SelectionRepository,
	logger *zap.Logger,
) *ProductionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductionService{
		recipes:   recipes,
		stock:     stock,
		selection: selection,
		logger:    logger,
	}
}

// SelectRecipes persists the set of recipes the user wants evaluated.
func (s *ProductionService) SelectRecipes(ctx context.Context, recipeIDs []string) error {
	for _, id := range recipeIDs {
		if _, err := s.recipes.GetByID(ctx, id); err != nil {
			return fmt.Errorf("selecting recipe %s: %w", id, err)
		}
	}
	return s.selection.SetSelectedRecipeIDs(ctx, recipeIDs)
}

// SelectedRecipeIDs returns the persisted selection.
func (s *ProductionService) SelectedRecipeIDs(ctx context.Context) ([]string, error) {
	return s.selection.GetSelectedRecipeIDs(ctx)
}

// LastOutput returns the most recent calculation, if any.
func (s *ProductionService) LastOutput(ctx context.Context) (*domain.ProductionOutput, error) {
	return s.selection.GetOutput(ctx)
}

// Calculate evaluates the selected recipes against current stock, persists
// the timestamped output and returns it. When recipeIDs is empty the stored
// selection is used.
func (s *ProductionService) Calculate(ctx context.Context, recipeIDs []string) (*domain.ProductionOutput, error) {
	if len(recipeIDs) == 0 {
		stored, err := s.selection.GetSelectedRecipeIDs(ctx)
		if err != nil {
			return nil, err
		}
		recipeIDs = stored
	}
	if len(recipeIDs) == 0 {
		return nil, fmt.Errorf("%w: no recipes selected", domain.ErrInvalidRequest)
	}

	recipes, err := s.recipes.GetByIDs(ctx, recipeIDs)
	if err != nil {
		return nil, err
	}

	stockItems, err := s.stock.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	stockByID := make(map[string]domain.StockItem, len(stockItems))
	for _, item := range stockItems {
		stockByID[item.ID] = item
	}

	output := &domain.ProductionOutput{
		Timestamp: time.Now().UTC(),
		Results:   make([]domain.ProductionResult, 0, len(recipes)),
	}
	for _, recipe := range recipes {
		output.Results = append(output.Results, s.evaluate(recipe, stockByID))
	}

	if err := s.selection.SetOutput(ctx, output); err != nil {
		s.logger.Error("failed to persist production output", zap.Error(err))
	}

	return output, nil
}

// evaluate computes the producible amount for one recipe: the bottleneck
// ingredient determines the number of whole batches, and each batch produces
// recipe.Yield units.
func (s *ProductionService) evaluate(recipe domain.Recipe, stockByID map[string]domain.StockItem) domain.ProductionResult {
	result := domain.ProductionResult{
		Recipe: recipe.Name,
		Unit:   domain.UnitUnit,
	}

	batches := math.Inf(1)
	for _, ingredient := range recipe.Ingredients {
		stockItem, ok := stockByID[ingredient.StockItemID]
		if !ok {
			batches = 0
			result.Alerts = append(result.Alerts, domain.ProductionAlert{
				Type:             domain.AlertMissingIngredient,
				Ingredient:       ingredient.Name,
				RequiredQuantity: ingredient.Quantity,
				RequiredUnit:     ingredient.Unit,
				Message: fmt.Sprintf("%s is not in stock (%s %s needed per batch)",
					ingredient.Name, domain.FormatNumber(ingredient.Quantity), ingredient.Unit),
			})
			continue
		}

		if !stockItem.Unit.Compatible(ingredient.Unit) {
			// Stock held in an inconvertible unit counts as unavailable
			// rather than guessing at a conversion.
			batches = 0
			result.Alerts = append(result.Alerts, domain.ProductionAlert{
				Type:              domain.AlertMissingIngredient,
				Ingredient:        ingredient.Name,
				RequiredQuantity:  ingredient.Quantity,
				RequiredUnit:      ingredient.Unit,
				AvailableQuantity: stockItem.Quantity,
				AvailableUnit:     stockItem.Unit,
				Message: fmt.Sprintf("%s is stocked in %s, which cannot be converted to %s",
					ingredient.Name, stockItem.Unit, ingredient.Unit),
			})
			continue
		}

		available := domain.ConvertUnit(stockItem.Quantity, stockItem.Unit, ingredient.Unit)

		if available < ingredient.Quantity {
			result.Alerts = append(result.Alerts, domain.ProductionAlert{
				Type:              domain.AlertInsufficientIngredient,
				Ingredient:        ingredient.Name,
				RequiredQuantity:  ingredient.Quantity,
				RequiredUnit:      ingredient.Unit,
				AvailableQuantity: available,
				AvailableUnit:     ingredient.Unit,
				Message: fmt.Sprintf("%s: %s %s available, %s %s needed per batch",
					ingredient.Name,
					domain.FormatNumber(available), ingredient.Unit,
					domain.FormatNumber(ingredient.Quantity), ingredient.Unit),
			})
		}

		if possible := math.Floor(available / ingredient.Quantity); possible < batches {
			batches = possible
		}
	}

	if math.IsInf(batches, 1) {
		batches = 0
	}

	result.PossibleQuantity = batches * recipe.Yield
	return result
}
