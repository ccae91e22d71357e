package http

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stocklens/backend/internal/domain"
	"github.com/stocklens/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	stock      *usecase.StockService
	recipes    *usecase.RecipeService
	production *usecase.ProductionService
	reconciler *usecase.ReconcileService
	matcher    *usecase.MatchingService
	gateway    domain.ExtractionGateway
	logger     *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	stock *usecase.StockService,
	recipes *usecase.RecipeService,
	production *usecase.ProductionService,
	reconciler *usecase.ReconcileService,
	matcher *usecase.MatchingService,
	gateway domain.ExtractionGateway,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		stock:      stock,
		recipes:    recipes,
		production: production,
		reconciler: reconciler,
		matcher:    matcher,
		gateway:    gateway,
		logger:     logger,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "stocklens-backend",
		"version": "1.0.0",
	})
}

// respondError maps domain errors to HTTP statuses.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, domain.ErrItemNotFound), errors.Is(err, domain.ErrRecipeNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateIngredient):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrEmptyIngredients),
		errors.Is(err, domain.ErrNonPositiveQuantity),
		errors.Is(err, domain.ErrEmptyCatalog),
		errors.Is(err, domain.ErrIncompatibleUnits):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNoMatch):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, domain.ErrExtractionFailure):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("unhandled error", zap.Error(err))
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

// --- Reconciliation ---

type reconcileInvoiceRequest struct {
	ImageBase64 string `json:"imageBase64" binding:"required"`
}

type reconcileAudioRequest struct {
	AudioBase64 string `json:"audioBase64" binding:"required"`
	Filename    string `json:"filename"`
}

type reconcileResponse struct {
	Results []domain.MatchResult `json:"results"`
}

// ReconcileInvoice extracts items from an invoice image and reconciles them
// against the stock catalog. Nothing is committed; the caller reviews the
// results and posts them to the apply endpoint.
func (h *Handler) ReconcileInvoice(c *gin.Context) {
	var req reconcileInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "imageBase64 is required"})
		return
	}

	mentions, err := h.gateway.ExtractFromImage(c.Request.Context(), req.ImageBase64)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.reconcile(c, mentions)
}

// ReconcileAudio extracts items from an audio recording and reconciles them
// against the stock catalog.
func (h *Handler) ReconcileAudio(c *gin.Context) {
	var req reconcileAudioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audioBase64 is required"})
		return
	}

	audio, err := base64.StdEncoding.DecodeString(req.AudioBase64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audioBase64 is not valid base64"})
		return
	}

	filename := req.Filename
	if filename == "" {
		filename = "recording.m4a"
	}

	mentions, err := h.gateway.ExtractFromAudio(c.Request.Context(), audio, filename)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.reconcile(c, mentions)
}

func (h *Handler) reconcile(c *gin.Context, mentions []domain.ExtractedMention) {
	catalog, err := h.stock.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	results, err := h.reconciler.ReconcileMentions(c.Request.Context(), mentions, catalog)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, reconcileResponse{Results: results})
}

type applyRequest struct {
	Results []domain.MatchResult  `json:"results" binding:"required"`
	Type    domain.MovementType   `json:"type" binding:"required"`
	Source  domain.MovementSource `json:"source"`
}

type applyResponse struct {
	Applied []domain.StockItem   `json:"applied"`
	Skipped []domain.MatchResult `json:"skipped,omitempty"`
}

// ApplyReconciliation commits reviewed match results as stock entries or
// exits.
func (h *Handler) ApplyReconciliation(c *gin.Context) {
	var req applyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "results and type are required"})
		return
	}

	if req.Type != domain.MovementEntry && req.Type != domain.MovementExit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be 'entry' or 'exit'"})
		return
	}
	source := req.Source
	if source == "" {
		source = domain.SourceManual
	}

	applied, skipped, err := h.stock.ApplyReconciliation(c.Request.Context(), req.Results, req.Type, source)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, applyResponse{Applied: applied, Skipped: skipped})
}

// --- Stock ---

type stockItemRequest struct {
	Name     string  `json:"name" binding:"required"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit" binding:"required"`
}

type quantityRequest struct {
	Quantity float64               `json:"quantity" binding:"required"`
	Source   domain.MovementSource `json:"source"`
}

// ListStock returns all stock items.
func (h *Handler) ListStock(c *gin.Context) {
	items, err := h.stock.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GetStockItem returns one stock item.
func (h *Handler) GetStockItem(c *gin.Context) {
	item, err := h.stock.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// CreateStockItem registers a new stock item. The unit token passes through
// NormalizeUnit, so ad-hoc vocabulary is accepted.
func (h *Handler) CreateStockItem(c *gin.Context) {
	var req stockItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and unit are required"})
		return
	}

	item, err := h.stock.Create(c.Request.Context(), req.Name, req.Quantity, domain.NormalizeUnit(req.Unit))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// UpdateStockItem replaces a stock item's fields.
func (h *Handler) UpdateStockItem(c *gin.Context) {
	var req stockItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and unit are required"})
		return
	}

	item := &domain.StockItem{
		ID:       c.Param("id"),
		Name:     req.Name,
		Quantity: req.Quantity,
		Unit:     domain.NormalizeUnit(req.Unit),
	}
	if err := h.stock.Update(c.Request.Context(), item); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteStockItem removes a stock item.
func (h *Handler) DeleteStockItem(c *gin.Context) {
	if err := h.stock.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// StockEntry adds quantity to a stock item.
func (h *Handler) StockEntry(c *gin.Context) {
	h.moveStock(c, domain.MovementEntry)
}

// StockExit removes quantity from a stock item, clamping at zero.
func (h *Handler) StockExit(c *gin.Context) {
	h.moveStock(c, domain.MovementExit)
}

func (h *Handler) moveStock(c *gin.Context, movement domain.MovementType) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity is required"})
		return
	}
	source := req.Source
	if source == "" {
		source = domain.SourceManual
	}

	var (
		item *domain.StockItem
		err  error
	)
	if movement == domain.MovementEntry {
		item, err = h.stock.AddQuantity(c.Request.Context(), c.Param("id"), req.Quantity, source)
	} else {
		item, err = h.stock.RemoveQuantity(c.Request.Context(), c.Param("id"), req.Quantity, source)
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// ListMovements returns the movement ledger for one stock item.
func (h *Handler) ListMovements(c *gin.Context) {
	movements, err := h.stock.Movements(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"movements": movements})
}

// SearchStock returns catalog candidates for a free-text name, ranked best
// first, for manual-resolution UIs.
func (h *Handler) SearchStock(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}

	catalog, err := h.stock.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"matches": h.matcher.FindSimilarItems(query, catalog)})
}

// --- Recipes ---

type recipeRequest struct {
	Name        string                    `json:"name" binding:"required"`
	Yield       float64                   `json:"yield" binding:"required"`
	Ingredients []domain.RecipeIngredient `json:"ingredients" binding:"required"`
}

// ListRecipes returns all recipes.
func (h *Handler) ListRecipes(c *gin.Context) {
	recipes, err := h.recipes.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

// GetRecipe returns one recipe.
func (h *Handler) GetRecipe(c *gin.Context) {
	recipe, err := h.recipes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// CreateRecipe validates and persists a new recipe.
func (h *Handler) CreateRecipe(c *gin.Context) {
	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, yield and ingredients are required"})
		return
	}

	recipe, err := h.recipes.Create(c.Request.Context(), req.Name, req.Yield, req.Ingredients)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

// UpdateRecipe validates and persists changes to a recipe.
func (h *Handler) UpdateRecipe(c *gin.Context) {
	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, yield and ingredients are required"})
		return
	}

	recipe := &domain.Recipe{
		ID:          c.Param("id"),
		Name:        req.Name,
		Yield:       req.Yield,
		Ingredients: req.Ingredients,
	}
	if err := h.recipes.Update(c.Request.Context(), recipe); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// DeleteRecipe removes a recipe.
func (h *Handler) DeleteRecipe(c *gin.Context) {
	if err := h.recipes.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Production potential ---

type selectionRequest struct {
	RecipeIDs []string `json:"recipeIds" binding:"required"`
}

// GetSelection returns the persisted recipe selection and the last
// calculation.
func (h *Handler) GetSelection(c *gin.Context) {
	ids, err := h.production.SelectedRecipeIDs(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	output, err := h.production.LastOutput(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipeIds": ids, "output": output})
}

// SetSelection replaces the persisted recipe selection.
func (h *Handler) SetSelection(c *gin.Context) {
	var req selectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recipeIds is required"})
		return
	}

	if err := h.production.SelectRecipes(c.Request.Context(), req.RecipeIDs); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type potentialRequest struct {
	RecipeIDs []string `json:"recipeIds"`
}

// CalculatePotential evaluates selected recipes against current stock.
func (h *Handler) CalculatePotential(c *gin.Context) {
	var req potentialRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	output, err := h.production.Calculate(c.Request.Context(), req.RecipeIDs)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, output)
}
