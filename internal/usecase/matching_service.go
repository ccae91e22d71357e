package usecase

import (
	"sort"
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/stocklens/backend/internal/domain"
)

// Default matching parameters. All of them are tunable through MatchConfig;
// the defaults were calibrated against real invoice extractions.
const (
	defaultThreshold        = 0.7
	defaultSimilarityWeight = 0.7
	defaultCoverageWeight   = 0.2
	defaultContainmentBonus = 0.15
	defaultLengthBonus      = 0.05
	defaultContainmentFloor = 0.7

	keywordMatchWeight     = 0.7
	keywordContainmentBump = 0.3
	qualityTieWindow       = 0.01
)

// stopWords are pt-BR articles and prepositions dropped during keyword
// extraction, together with any token of length <= 2.
var stopWords = map[string]bool{
	"de": true, "da": true, "do": true, "em": true,
	"a": true, "o": true, "e": true,
	"para": true, "com": true, "um": true, "uma": true,
}

// diacriticStripper decomposes to NFD, removes combining marks and recomposes,
// so "açúcar" and "acucar" compare equal.
var diacriticStripper = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// MatchConfig holds configuration for the matching service. Zero values fall
// back to the defaults above.
type MatchConfig struct {
	Threshold          float64
	SimilarityWeight   float64
	CoverageWeight     float64
	ContainmentBonus   float64
	LengthBonus        float64
	ContainmentFloor   float64
	EnableDebugLogging bool
}

// MatchingService resolves free-text names against a catalog of stock items.
// Pure over its inputs: two calls with identical arguments always return the
// same result, so calls may run concurrently without synchronization.
type MatchingService struct {
	threshold          float64
	similarityWeight   float64
	coverageWeight     float64
	containmentBonus   float64
	lengthBonus        float64
	containmentFloor   float64
	enableDebugLogging bool
	logger             *zap.Logger
}

// ScoredCandidate is one catalog candidate that cleared the similarity
// threshold, with both ranking scores attached.
type ScoredCandidate struct {
	Entry      domain.StockItem `json:"entry"`
	Similarity float64          `json:"similarity"`
	Quality    float64          `json:"quality"`
}

// NewMatchingService creates a matching service, applying defaults for any
// unset config values.
func NewMatchingService(config MatchConfig, logger *zap.Logger) *MatchingService {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &MatchingService{
		threshold:          config.Threshold,
		similarityWeight:   config.SimilarityWeight,
		coverageWeight:     config.CoverageWeight,
		containmentBonus:   config.ContainmentBonus,
		lengthBonus:        config.LengthBonus,
		containmentFloor:   config.ContainmentFloor,
		enableDebugLogging: config.EnableDebugLogging,
		logger:             logger,
	}

	if s.threshold <= 0 || s.threshold > 1 {
		s.threshold = defaultThreshold
	}
	if s.similarityWeight <= 0 {
		s.similarityWeight = defaultSimilarityWeight
	}
	if s.coverageWeight <= 0 {
		s.coverageWeight = defaultCoverageWeight
	}
	if s.containmentBonus <= 0 {
		s.containmentBonus = defaultContainmentBonus
	}
	if s.lengthBonus <= 0 {
		s.lengthBonus = defaultLengthBonus
	}
	if s.containmentFloor <= 0 {
		s.containmentFloor = defaultContainmentFloor
	}

	return s
}

// FindBestMatch returns the catalog entry best matching query, or ErrNoMatch
// when no candidate clears the threshold. Absence of a match is an expected
// outcome, not a failure.
func (s *MatchingService) FindBestMatch(query string, candidates []domain.StockItem) (*domain.StockItem, float64, error) {
	matches := s.FindSimilarItems(query, candidates)
	if len(matches) == 0 {
		return nil, 0, domain.ErrNoMatch
	}

	best := matches[0]
	return &best.Entry, best.Similarity, nil
}

// FindSimilarItems returns every candidate at or above the similarity
// threshold, ranked best first. The ranking is a two-pass scheme: candidates
// are filtered on combined similarity, then re-ranked by a quality score that
// favors the most specific, most completely covered name over the merely
// closest string.
func (s *MatchingService) FindSimilarItems(query string, candidates []domain.StockItem) []ScoredCandidate {
	nq := normalizeName(query)
	if nq == "" || len(candidates) == 0 {
		return nil
	}

	queryKeywords := extractKeywords(nq)

	type scored struct {
		candidate ScoredCandidate
		exact     bool
	}

	var matches []scored
	for _, candidate := range candidates {
		nc := normalizeName(candidate.Name)

		similarity, coverage, contained := s.score(nq, nc, queryKeywords)

		if s.enableDebugLogging {
			s.logger.Debug("match candidate scored",
				zap.String("query", query),
				zap.String("candidate", candidate.Name),
				zap.Float64("similarity", similarity),
				zap.Float64("coverage", coverage))
		}

		if similarity < s.threshold {
			continue
		}

		quality := similarity*s.similarityWeight + coverage*s.coverageWeight
		if contained {
			quality += s.containmentBonus
		}
		if len([]rune(nc)) >= len([]rune(nq)) {
			quality += s.lengthBonus
		}

		matches = append(matches, scored{
			candidate: ScoredCandidate{
				Entry:      candidate,
				Similarity: similarity,
				Quality:    quality,
			},
			exact: nq == nc,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		// An exactly equal normalized name always outranks near matches, which
		// can otherwise tie it on quality.
		if matches[i].exact != matches[j].exact {
			return matches[i].exact
		}
		// Quality ranks next; ties within the window break on raw similarity.
		diff := matches[i].candidate.Quality - matches[j].candidate.Quality
		if diff > qualityTieWindow || diff < -qualityTieWindow {
			return matches[i].candidate.Quality > matches[j].candidate.Quality
		}
		return matches[i].candidate.Similarity > matches[j].candidate.Similarity
	})

	out := make([]ScoredCandidate, len(matches))
	for i, m := range matches {
		out[i] = m.candidate
	}
	return out
}

// score computes the combined similarity between a normalized query and
// candidate, the query keyword coverage, and whether one string fully
// contains the other.
func (s *MatchingService) score(nq, nc string, queryKeywords []string) (similarity, coverage float64, contained bool) {
	if nq == "" || nc == "" {
		return 0, 0, false
	}

	if nq == nc {
		return 1, 1, true
	}

	contained = strings.Contains(nc, nq) || strings.Contains(nq, nc)

	levScore := levenshteinSimilarity(nq, nc)
	kwScore, coverage := keywordSimilarity(queryKeywords, nc, contained)

	similarity = levScore
	if kwScore > similarity {
		similarity = kwScore
	}
	if avg := (levScore + kwScore) / 2; avg > similarity {
		similarity = avg
	}

	// Containment floor: a fully contained short name (e.g. "açúcar" inside
	// "açúcar refinado") is never pushed below the threshold purely by the
	// length difference.
	if contained {
		shorter, longer := len([]rune(nq)), len([]rune(nc))
		if shorter > longer {
			shorter, longer = longer, shorter
		}
		floor := s.containmentFloor
		if ratio := float64(shorter) / float64(longer); ratio > floor {
			floor = ratio
		}
		if floor > similarity {
			similarity = floor
		}
	}

	return similarity, coverage, contained
}

// levenshteinSimilarity converts edit distance into a [0,1] ratio.
func levenshteinSimilarity(s1, s2 string) float64 {
	maxLen := len([]rune(s1))
	if l := len([]rune(s2)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 0
	}

	distance := matchr.Levenshtein(s1, s2)
	return 1 - float64(distance)/float64(maxLen)
}

// keywordSimilarity scores how well the candidate covers the query's
// keywords. A query keyword counts as matched when any candidate keyword
// contains it or is contained by it, so "refinado" still matches "refinad"
// from a truncated OCR line. Score is coverage scaled to keywordMatchWeight,
// plus a containment bump, capped at 1.
func keywordSimilarity(queryKeywords []string, normalizedCandidate string, contained bool) (score, coverage float64) {
	if len(queryKeywords) == 0 {
		return 0, 0
	}

	candidateKeywords := extractKeywords(normalizedCandidate)

	matched := 0
	for _, qk := range queryKeywords {
		for _, ck := range candidateKeywords {
			if strings.Contains(ck, qk) || strings.Contains(qk, ck) {
				matched++
				break
			}
		}
	}

	coverage = float64(matched) / float64(len(queryKeywords))
	score = coverage * keywordMatchWeight
	if contained {
		score += keywordContainmentBump
	}
	if score > 1 {
		score = 1
	}

	return score, coverage
}

// normalizeName lowercases, strips diacritics and trims for comparison.
func normalizeName(s string) string {
	lowered := strings.ToLower(strings.TrimSpace(s))

	stripped, _, err := transform.String(diacriticStripper, lowered)
	if err != nil {
		return lowered
	}

	return stripped
}

// extractKeywords tokenizes a normalized string into significant words,
// dropping stop words and tokens of length <= 2.
func extractKeywords(normalized string) []string {
	var keywords []string
	for _, word := range strings.Fields(normalized) {
		if len([]rune(word)) <= 2 {
			continue
		}
		if stopWords[word] {
			continue
		}
		keywords = append(keywords, word)
	}
	return keywords
}
