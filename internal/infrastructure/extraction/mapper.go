package extraction

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/stocklens/backend/internal/domain"
)

// jsonArrayRegex finds the first JSON array in a completion, tolerating
// fenced code blocks and prose around it.
var jsonArrayRegex = regexp.MustCompile(`(?s)\[.*\]`)

// rawMention mirrors the JSON shape the extraction prompt requests.
type rawMention struct {
	Nome       string  `json:"nome"`
	Quantidade float64 `json:"quantidade"`
	Unidade    string  `json:"unidade"`
}

// ParseMentions parses a model completion into mentions. Rows with an empty
// name, non-positive quantity or empty unit are dropped; unit tokens pass
// through NormalizeUnit, the untrusted-input boundary for everything the
// gateway returns.
func ParseMentions(content string) ([]domain.ExtractedMention, error) {
	block := jsonArrayRegex.FindString(content)
	if block == "" {
		return nil, fmt.Errorf("%w: no JSON array in completion", domain.ErrExtractionFailure)
	}

	var raw []rawMention
	if err := json.Unmarshal([]byte(block), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtractionFailure, err)
	}

	mentions := make([]domain.ExtractedMention, 0, len(raw))
	for _, item := range raw {
		name := strings.TrimSpace(item.Nome)
		if name == "" || item.Quantidade <= 0 || strings.TrimSpace(item.Unidade) == "" {
			continue
		}

		mentions = append(mentions, domain.ExtractedMention{
			Name:     name,
			Quantity: item.Quantidade,
			Unit:     domain.NormalizeUnit(item.Unidade),
		})
	}

	return mentions, nil
}
