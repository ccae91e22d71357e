package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/stocklens/backend/internal/domain"
)

// RecipeService manages recipe composition. All structural validation runs
// before anything reaches the repository.
type RecipeService struct {
	recipes domain.RecipeRepository
	stock   domain.StockRepository
	logger  *zap.Logger
}

// NewRecipeService creates a recipe service with its repositories.
func NewRecipeService(recipes domain.RecipeRepository, stock domain.StockRepository, logger *zap.Logger) *RecipeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecipeService{
		recipes: recipes,
		stock:   stock,
		logger:  logger,
	}
}

// List returns all recipes.
func (s *RecipeService) List(ctx context.Context) ([]domain.Recipe, error) {
	return s.recipes.GetAll(ctx)
}

// Get returns one recipe by id.
func (s *RecipeService) Get(ctx context.Context, id string) (*domain.Recipe, error) {
	return s.recipes.GetByID(ctx, id)
}

// Create validates and persists a new recipe.
func (s *RecipeService) Create(ctx context.Context, name string, yield float64, ingredients []domain.RecipeIngredient) (*domain.Recipe, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: recipe name is required", domain.ErrInvalidRequest)
	}
	if yield <= 0 {
		return nil, fmt.Errorf("%w: yield %s", domain.ErrNonPositiveQuantity, domain.FormatNumber(yield))
	}
	if err := s.ValidateIngredients(ctx, ingredients); err != nil {
		return nil, err
	}

	recipe := &domain.Recipe{
		Name:        name,
		Yield:       yield,
		Ingredients: trimIngredientNames(ingredients),
	}
	if err := s.recipes.Create(ctx, recipe); err != nil {
		return nil, err
	}

	return recipe, nil
}

// Update validates and persists changes to an existing recipe.
func (s *RecipeService) Update(ctx context.Context, recipe *domain.Recipe) error {
	if recipe == nil || recipe.ID == "" {
		return fmt.Errorf("%w: recipe id is required", domain.ErrInvalidRequest)
	}
	recipe.Name = strings.TrimSpace(recipe.Name)
	if recipe.Name == "" {
		return fmt.Errorf("%w: recipe name is required", domain.ErrInvalidRequest)
	}
	if recipe.Yield <= 0 {
		return fmt.Errorf("%w: yield %s", domain.ErrNonPositiveQuantity, domain.FormatNumber(recipe.Yield))
	}
	if err := s.ValidateIngredients(ctx, recipe.Ingredients); err != nil {
		return err
	}

	recipe.Ingredients = trimIngredientNames(recipe.Ingredients)
	return s.recipes.Update(ctx, recipe)
}

// Delete removes a recipe.
func (s *RecipeService) Delete(ctx context.Context, id string) error {
	return s.recipes.Delete(ctx, id)
}

// ValidateIngredients enforces the composition invariants: stock must not be
// empty, every ingredient must reference an existing stock item with a
// positive quantity, and the same stock item must not appear twice.
func (s *RecipeService) ValidateIngredients(ctx context.Context, ingredients []domain.RecipeIngredient) error {
	if len(ingredients) == 0 {
		return domain.ErrEmptyIngredients
	}

	stockItems, err := s.stock.GetAll(ctx)
	if err != nil {
		return err
	}
	if len(stockItems) == 0 {
		return domain.ErrEmptyCatalog
	}

	byID := make(map[string]domain.StockItem, len(stockItems))
	for _, item := range stockItems {
		byID[item.ID] = item
	}

	seen := make(map[string]bool, len(ingredients))
	for _, ingredient := range ingredients {
		if ingredient.Quantity <= 0 {
			return fmt.Errorf("%w: ingredient %q", domain.ErrNonPositiveQuantity, ingredient.Name)
		}

		if _, ok := byID[ingredient.StockItemID]; !ok {
			return fmt.Errorf("%w: ingredient %q references %s",
				domain.ErrItemNotFound, ingredient.Name, ingredient.StockItemID)
		}

		if seen[ingredient.StockItemID] {
			return fmt.Errorf("%w: %q", domain.ErrDuplicateIngredient, ingredient.Name)
		}
		seen[ingredient.StockItemID] = true
	}

	return nil
}

// IngredientsFromResults builds an editable ingredient list from reconciled
// speech mentions: matched results become ingredients referencing the matched
// stock item (quantity already in the item's unit); unmatched and
// incompatible results are returned separately for manual resolution.
func (s *RecipeService) IngredientsFromResults(results []domain.MatchResult) (ingredients []domain.RecipeIngredient, unresolved []domain.MatchResult) {
	for _, result := range results {
		switch result.Outcome {
		case domain.OutcomeExactUnit, domain.OutcomeConverted:
			ingredients = append(ingredients, domain.RecipeIngredient{
				StockItemID: result.Matched.ID,
				Name:        result.Matched.Name,
				Quantity:    result.Quantity,
				Unit:        result.Unit,
			})
		default:
			unresolved = append(unresolved, result)
		}
	}
	return ingredients, unresolved
}

func trimIngredientNames(ingredients []domain.RecipeIngredient) []domain.RecipeIngredient {
	trimmed := make([]domain.RecipeIngredient, len(ingredients))
	for i, ingredient := range ingredients {
		ingredient.Name = strings.TrimSpace(ingredient.Name)
		trimmed[i] = ingredient
	}
	return trimmed
}
