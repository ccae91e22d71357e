package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stocklens/backend/internal/domain"
)

// StockStore is a thread-safe in-memory stock catalog plus movement ledger.
// Reads return copies, so callers can hold a catalog snapshot across a whole
// reconciliation pass without locking.
type StockStore struct {
	mu        sync.RWMutex
	items     map[string]domain.StockItem
	order     []string
	movements map[string][]domain.StockMovement
}

// NewStockStore creates an empty stock store.
func NewStockStore() *StockStore {
	return &StockStore{
		items:     make(map[string]domain.StockItem),
		movements: make(map[string][]domain.StockMovement),
	}
}

var (
	_ domain.StockRepository    = (*StockStore)(nil)
	_ domain.MovementRepository = (*StockStore)(nil)
)

// GetAll returns all stock items in insertion order.
func (s *StockStore) GetAll(ctx context.Context) ([]domain.StockItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.StockItem, 0, len(s.order))
	for _, id := range s.order {
		if item, ok := s.items[id]; ok {
			items = append(items, item)
		}
	}
	return items, nil
}

// GetByID returns a copy of one stock item.
func (s *StockStore) GetByID(ctx context.Context, id string) (*domain.StockItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	return &item, nil
}

// Create inserts a new stock item with a generated id and timestamps.
func (s *StockStore) Create(ctx context.Context, name string, quantity float64, unit domain.Unit) (*domain.StockItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	item := domain.StockItem{
		ID:        uuid.NewString(),
		Name:      name,
		Quantity:  quantity,
		Unit:      unit,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.items[item.ID] = item
	s.order = append(s.order, item.ID)
	return &item, nil
}

// Update replaces a stock item, refreshing its UpdatedAt.
func (s *StockStore) Update(ctx context.Context, item *domain.StockItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.items[item.ID]
	if !ok {
		return domain.ErrItemNotFound
	}

	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = time.Now().UTC()
	s.items[item.ID] = *item
	return nil
}

// Delete removes a stock item and its movement history.
func (s *StockStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return domain.ErrItemNotFound
	}
	delete(s.items, id)
	delete(s.movements, id)
	return nil
}

// Record appends a movement to the item's ledger, filling id and date when
// unset.
func (s *StockStore) Record(ctx context.Context, movement *domain.StockMovement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if movement.ID == "" {
		movement.ID = uuid.NewString()
	}
	if movement.Date.IsZero() {
		movement.Date = time.Now().UTC()
	}

	s.movements[movement.StockItemID] = append(s.movements[movement.StockItemID], *movement)
	return nil
}

// ListByItem returns the movement ledger for one stock item, oldest first.
func (s *StockStore) ListByItem(ctx context.Context, stockItemID string) ([]domain.StockMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ledger := s.movements[stockItemID]
	out := make([]domain.StockMovement, len(ledger))
	copy(out, ledger)
	return out, nil
}

// RecipeStore is a thread-safe in-memory recipe repository.
type RecipeStore struct {
	mu      sync.RWMutex
	recipes map[string]domain.Recipe
	order   []string
}

// NewRecipeStore creates an empty recipe store.
func NewRecipeStore() *RecipeStore {
	return &RecipeStore{
		recipes: make(map[string]domain.Recipe),
	}
}

var _ domain.RecipeRepository = (*RecipeStore)(nil)

// GetAll returns all recipes in insertion order.
func (s *RecipeStore) GetAll(ctx context.Context) ([]domain.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recipes := make([]domain.Recipe, 0, len(s.order))
	for _, id := range s.order {
		if recipe, ok := s.recipes[id]; ok {
			recipes = append(recipes, copyRecipe(recipe))
		}
	}
	return recipes, nil
}

// GetByID returns a copy of one recipe.
func (s *RecipeStore) GetByID(ctx context.Context, id string) (*domain.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recipe, ok := s.recipes[id]
	if !ok {
		return nil, domain.ErrRecipeNotFound
	}
	out := copyRecipe(recipe)
	return &out, nil
}

// GetByIDs returns the recipes matching ids, skipping unknown ones.
func (s *RecipeStore) GetByIDs(ctx context.Context, ids []string) ([]domain.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recipes := make([]domain.Recipe, 0, len(ids))
	for _, id := range ids {
		if recipe, ok := s.recipes[id]; ok {
			recipes = append(recipes, copyRecipe(recipe))
		}
	}
	return recipes, nil
}

// Create inserts a new recipe with a generated id and timestamps.
func (s *RecipeStore) Create(ctx context.Context, recipe *domain.Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if recipe.ID == "" {
		recipe.ID = uuid.NewString()
	}
	recipe.CreatedAt = now
	recipe.UpdatedAt = now

	s.recipes[recipe.ID] = copyRecipe(*recipe)
	s.order = append(s.order, recipe.ID)
	return nil
}

// Update replaces a recipe, refreshing its UpdatedAt.
func (s *RecipeStore) Update(ctx context.Context, recipe *domain.Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.recipes[recipe.ID]
	if !ok {
		return domain.ErrRecipeNotFound
	}

	recipe.CreatedAt = existing.CreatedAt
	recipe.UpdatedAt = time.Now().UTC()
	s.recipes[recipe.ID] = copyRecipe(*recipe)
	return nil
}

// Delete removes a recipe.
func (s *RecipeStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.recipes[id]; !ok {
		return domain.ErrRecipeNotFound
	}
	delete(s.recipes, id)
	return nil
}

// SelectionStore persists the recipe selection and the last production
// output in memory.
type SelectionStore struct {
	mu        sync.RWMutex
	selection []string
	output    *domain.ProductionOutput
}

// NewSelectionStore creates an empty selection store.
func NewSelectionStore() *SelectionStore {
	return &SelectionStore{}
}

var _ domain.SelectionRepository = (*SelectionStore)(nil)

// GetSelectedRecipeIDs returns the persisted recipe selection.
func (s *SelectionStore) GetSelectedRecipeIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.selection))
	copy(out, s.selection)
	return out, nil
}

// SetSelectedRecipeIDs replaces the persisted recipe selection.
func (s *SelectionStore) SetSelectedRecipeIDs(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selection = make([]string, len(ids))
	copy(s.selection, ids)
	return nil
}

// GetOutput returns the last persisted production output, or nil when no
// calculation has run yet.
func (s *SelectionStore) GetOutput(ctx context.Context) (*domain.ProductionOutput, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.output == nil {
		return nil, nil
	}
	out := *s.output
	out.Results = make([]domain.ProductionResult, len(s.output.Results))
	copy(out.Results, s.output.Results)
	return &out, nil
}

// SetOutput persists a production output.
func (s *SelectionStore) SetOutput(ctx context.Context, output *domain.ProductionOutput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.output = output
	return nil
}

func copyRecipe(recipe domain.Recipe) domain.Recipe {
	out := recipe
	out.Ingredients = make([]domain.RecipeIngredient, len(recipe.Ingredients))
	copy(out.Ingredients, recipe.Ingredients)
	return out
}
