package domain

import "time"

// StockItem is one canonical catalog entry: a stock item with a stable
// identifier. The matching core treats slices of StockItem as read-only
// snapshots for the duration of one reconciliation pass.
type StockItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Quantity  float64   `json:"quantity"`
	Unit      Unit      `json:"unit"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ExtractedMention is one raw (name, quantity, unit) triple produced by the
// OCR/speech extraction gateway. Consumed once by reconciliation and
// discarded.
type ExtractedMention struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     Unit    `json:"unit"`
}

// MatchOutcome classifies one reconciled mention. Every consumer has to
// handle all four variants explicitly.
type MatchOutcome string

const (
	// OutcomeExactUnit means a catalog match whose unit equals the mention's.
	OutcomeExactUnit MatchOutcome = "exact_unit"
	// OutcomeConverted means a catalog match with the quantity converted into
	// the catalog entry's unit.
	OutcomeConverted MatchOutcome = "converted"
	// OutcomeIncompatibleUnit means a catalog match whose unit family differs
	// from the mention's; quantity is left untouched and the result is
	// flagged for manual review.
	OutcomeIncompatibleUnit MatchOutcome = "incompatible_unit"
	// OutcomeUnmatched means no catalog candidate cleared the similarity
	// threshold; the mention is carried as-is for manual assignment.
	OutcomeUnmatched MatchOutcome = "unmatched"
)

// MatchResult is the reconciled form of one mention. Never persisted
// directly; the caller decides whether to commit it to stock.
type MatchResult struct {
	Mention    ExtractedMention `json:"mention"`
	Outcome    MatchOutcome     `json:"outcome"`
	Matched    *StockItem       `json:"matched,omitempty"`
	Similarity float64          `json:"similarity,omitempty"`
	Quantity   float64          `json:"quantity"`
	Unit       Unit             `json:"unit"`
}

// MovementType distinguishes stock additions from removals.
type MovementType string

const (
	MovementEntry MovementType = "entry"
	MovementExit  MovementType = "exit"
)

// MovementSource records where a stock movement originated.
type MovementSource string

const (
	SourceInvoice MovementSource = "invoice"
	SourceVoice   MovementSource = "voice"
	SourceManual  MovementSource = "manual"
)

// StockMovement is one ledger entry for a stock quantity change. Quantity is
// always expressed in the stock item's unit and is the amount requested, not
// the clamped delta.
type StockMovement struct {
	ID          string         `json:"id"`
	StockItemID string         `json:"stockItemId"`
	Quantity    float64        `json:"quantity"`
	Type        MovementType   `json:"type"`
	Source      MovementSource `json:"source"`
	Date        time.Time      `json:"date"`
	Notes       string         `json:"notes,omitempty"`
}

// RecipeIngredient references a stock item by id. Unit must be compatible
// with the referenced stock item's unit.
type RecipeIngredient struct {
	StockItemID string  `json:"stockItemId"`
	Name        string  `json:"name"`
	Quantity    float64 `json:"quantity"`
	Unit        Unit    `json:"unit"`
}

// Recipe is a named composition of stock ingredients. Yield is the number of
// units one batch produces.
type Recipe struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Yield       float64            `json:"yield"`
	Ingredients []RecipeIngredient `json:"ingredients"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// AlertType classifies production-potential alerts.
type AlertType string

const (
	AlertMissingIngredient      AlertType = "missing_ingredient"
	AlertInsufficientIngredient AlertType = "insufficient_ingredient"
)

// ProductionAlert explains why a recipe cannot be produced at full (or any)
// volume from current stock.
type ProductionAlert struct {
	Type              AlertType `json:"type"`
	Ingredient        string    `json:"ingredient"`
	RequiredQuantity  float64   `json:"requiredQuantity"`
	RequiredUnit      Unit      `json:"requiredUnit"`
	AvailableQuantity float64   `json:"availableQuantity"`
	AvailableUnit     Unit      `json:"availableUnit"`
	Message           string    `json:"message"`
}

// ProductionResult is the producible amount for one recipe given current
// stock, plus any alerts.
type ProductionResult struct {
	Recipe           string            `json:"recipe"`
	PossibleQuantity float64           `json:"possibleQuantity"`
	Unit             Unit              `json:"unit"`
	Alerts           []ProductionAlert `json:"alerts,omitempty"`
}

// ProductionOutput is a timestamped batch of production results, persisted so
// the last calculation survives restarts.
type ProductionOutput struct {
	Timestamp time.Time          `json:"timestamp"`
	Results   []ProductionResult `json:"results"`
}
