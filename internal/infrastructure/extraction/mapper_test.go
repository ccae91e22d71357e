package extraction

import (
	"errors"
	"testing"

	"github.com/stocklens/backend/internal/domain"
)

func TestParseMentions(t *testing.T) {
	t.Run("plain JSON array", func(t *testing.T) {
		content := `[{"nome": "Farinha de Trigo", "quantidade": 2, "unidade": "kg"}, {"nome": "Leite", "quantidade": 1, "unidade": "L"}]`

		mentions, err := ParseMentions(content)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(mentions) != 2 {
			t.Fatalf("got %d mentions, want 2", len(mentions))
		}
		if mentions[0].Name != "Farinha de Trigo" || mentions[0].Quantity != 2 || mentions[0].Unit != domain.UnitKilogram {
			t.Errorf("mentions[0] = %+v", mentions[0])
		}
		if mentions[1].Unit != domain.UnitLiter {
			t.Errorf("mentions[1].Unit = %q, want L", mentions[1].Unit)
		}
	})

	t.Run("array inside fenced code block", func(t *testing.T) {
		content := "Aqui estão os itens:\n```json\n[{\"nome\": \"Ovos\", \"quantidade\": 1, \"unidade\": \"duzia\"}]\n```\n"

		mentions, err := ParseMentions(content)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(mentions) != 1 || mentions[0].Unit != domain.UnitDozen {
			t.Errorf("mentions = %+v", mentions)
		}
	})

	t.Run("off vocabulary unit falls back to un", func(t *testing.T) {
		content := `[{"nome": "Detergente", "quantidade": 3, "unidade": "frasco"}]`

		mentions, err := ParseMentions(content)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if mentions[0].Unit != domain.UnitUnit {
			t.Errorf("unit = %q, want un", mentions[0].Unit)
		}
	})

	t.Run("incomplete rows are dropped", func(t *testing.T) {
		content := `[
			{"nome": "", "quantidade": 1, "unidade": "kg"},
			{"nome": "Sal", "quantidade": 0, "unidade": "kg"},
			{"nome": "Arroz", "quantidade": 5, "unidade": ""},
			{"nome": "Feijão", "quantidade": 2, "unidade": "kg"}
		]`

		mentions, err := ParseMentions(content)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(mentions) != 1 || mentions[0].Name != "Feijão" {
			t.Errorf("mentions = %+v, want only Feijão", mentions)
		}
	})

	t.Run("names are trimmed", func(t *testing.T) {
		content := `[{"nome": "  Açúcar  ", "quantidade": 1, "unidade": "kg"}]`

		mentions, err := ParseMentions(content)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if mentions[0].Name != "Açúcar" {
			t.Errorf("name = %q, want trimmed", mentions[0].Name)
		}
	})

	t.Run("empty array is valid", func(t *testing.T) {
		mentions, err := ParseMentions("[]")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(mentions) != 0 {
			t.Errorf("got %d mentions, want 0", len(mentions))
		}
	})

	t.Run("no array is an extraction failure", func(t *testing.T) {
		_, err := ParseMentions("desculpe, não consegui ler a imagem")
		if !errors.Is(err, domain.ErrExtractionFailure) {
			t.Errorf("err = %v, want ErrExtractionFailure", err)
		}
	})

	t.Run("malformed JSON is an extraction failure", func(t *testing.T) {
		_, err := ParseMentions(`[{"nome": "Sal", "quantidade": }]`)
		if !errors.Is(err, domain.ErrExtractionFailure) {
			t.Errorf("err = %v, want ErrExtractionFailure", err)
		}
	})
}
