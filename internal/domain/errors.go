package domain

import "errors"

var (
	// ErrNoMatch is returned when no catalog candidate clears the similarity
	// threshold. Expected absence, not a failure.
	ErrNoMatch = errors.New("no catalog match above threshold")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrItemNotFound is returned when a stock item id does not exist
	ErrItemNotFound = errors.New("stock item not found")

	// ErrRecipeNotFound is returned when a recipe id does not exist
	ErrRecipeNotFound = errors.New("recipe not found")

	// ErrEmptyCatalog is returned when recipe composition is attempted with
	// no stock items registered
	ErrEmptyCatalog = errors.New("no stock items registered")

	// ErrDuplicateIngredient is returned when a recipe references the same
	// stock item twice
	ErrDuplicateIngredient = errors.New("duplicate ingredient reference")

	// ErrEmptyIngredients is returned when a recipe has no ingredients
	ErrEmptyIngredients = errors.New("recipe must have at least one ingredient")

	// ErrNonPositiveQuantity is returned for zero or negative quantities and
	// yields in validation
	ErrNonPositiveQuantity = errors.New("quantity must be positive")

	// ErrIncompatibleUnits is returned when a conversion is requested across
	// unit families
	ErrIncompatibleUnits = errors.New("units belong to different families")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrExtractionFailure is returned when the extraction gateway fails
	ErrExtractionFailure = errors.New("extraction gateway request failed")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")
)
