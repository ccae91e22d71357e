package usecase

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stocklens/backend/internal/domain"
)

// reconcileConcurrency bounds the per-batch fan-out. Matching one mention is
// microseconds of pure CPU work, so a small pool is plenty.
const reconcileConcurrency = 8

// ReconcileService turns batches of extracted mentions into actionable
// match results against a catalog snapshot. It never writes storage; callers
// inspect the results and decide what to commit.
type ReconcileService struct {
	matcher *MatchingService
	logger  *zap.Logger
}

// NewReconcileService creates a reconcile service around a matching service.
func NewReconcileService(matcher *MatchingService, logger *zap.Logger) *ReconcileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconcileService{
		matcher: matcher,
		logger:  logger,
	}
}

// ReconcileMentions resolves each mention independently against the catalog
// snapshot. Mentions have no data dependency on one another, so they are
// evaluated concurrently; the output slice always preserves input order.
func (s *ReconcileService) ReconcileMentions(
	ctx context.Context,
	mentions []domain.ExtractedMention,
	catalog []domain.StockItem,
) ([]domain.MatchResult, error) {
	results := make([]domain.MatchResult, len(mentions))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileConcurrency)

	for i, mention := range mentions {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			results[i] = s.reconcileOne(mention, catalog)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// reconcileOne matches a single mention and reconciles its unit against the
// matched entry's unit.
func (s *ReconcileService) reconcileOne(mention domain.ExtractedMention, catalog []domain.StockItem) domain.MatchResult {
	result := domain.MatchResult{
		Mention:  mention,
		Quantity: mention.Quantity,
		Unit:     mention.Unit,
	}

	matched, similarity, err := s.matcher.FindBestMatch(mention.Name, catalog)
	if err != nil {
		// No candidate above threshold: carry the mention untouched so the
		// caller can prompt for manual catalog assignment.
		result.Outcome = domain.OutcomeUnmatched
		return result
	}

	result.Matched = matched
	result.Similarity = similarity

	switch {
	case mention.Unit == matched.Unit:
		result.Outcome = domain.OutcomeExactUnit

	case mention.Unit.Compatible(matched.Unit):
		result.Outcome = domain.OutcomeConverted
		result.Quantity = domain.ConvertUnit(mention.Quantity, mention.Unit, matched.Unit)
		result.Unit = matched.Unit

	default:
		// Cross-family mention, e.g. "2 L" against stock held in kg. Leave
		// the quantity unconverted and flag for manual review.
		result.Outcome = domain.OutcomeIncompatibleUnit
		s.logger.Warn("mention unit incompatible with matched stock item",
			zap.String("mention", mention.Name),
			zap.String("mentionUnit", string(mention.Unit)),
			zap.String("matched", matched.Name),
			zap.String("stockUnit", string(matched.Unit)))
	}

	return result
}
