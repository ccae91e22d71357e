package domain

import (
	"context"
	"time"
)

// StockRepository defines persistence for catalog/stock items. The
// reconciliation core only uses the read operations; write-back happens after
// the caller has inspected the MatchResults.
type StockRepository interface {
	GetAll(ctx context.Context) ([]StockItem, error)
	GetByID(ctx context.Context, id string) (*StockItem, error)
	Create(ctx context.Context, name string, quantity float64, unit Unit) (*StockItem, error)
	Update(ctx context.Context, item *StockItem) error
	Delete(ctx context.Context, id string) error
}

// MovementRepository records the stock movement ledger.
type MovementRepository interface {
	Record(ctx context.Context, movement *StockMovement) error
	ListByItem(ctx context.Context, stockItemID string) ([]StockMovement, error)
}

// RecipeRepository defines persistence for recipes.
type RecipeRepository interface {
	GetAll(ctx context.Context) ([]Recipe, error)
	GetByID(ctx context.Context, id string) (*Recipe, error)
	GetByIDs(ctx context.Context, ids []string) ([]Recipe, error)
	Create(ctx context.Context, recipe *Recipe) error
	Update(ctx context.Context, recipe *Recipe) error
	Delete(ctx context.Context, id string) error
}

// SelectionRepository persists the recipe selection and the last production
// potential output.
type SelectionRepository interface {
	GetSelectedRecipeIDs(ctx context.Context) ([]string, error)
	SetSelectedRecipeIDs(ctx context.Context, ids []string) error
	GetOutput(ctx context.Context) (*ProductionOutput, error)
	SetOutput(ctx context.Context, output *ProductionOutput) error
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// ExtractionGateway turns raw invoice images or audio recordings into
// structured mentions. Returned unit tags are already normalized; everything
// else is untrusted upstream output.
type ExtractionGateway interface {
	ExtractFromImage(ctx context.Context, imageBase64 string) ([]ExtractedMention, error)
	ExtractFromAudio(ctx context.Context, audio []byte, filename string) ([]ExtractedMention, error)
}
