package extraction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stocklens/backend/internal/domain"
	"github.com/stocklens/backend/internal/infrastructure/cache"
)

// stubGateway counts calls and returns a fixed result.
type stubGateway struct {
	imageCalls int
	audioCalls int
	mentions   []domain.ExtractedMention
	err        error
}

func (s *stubGateway) ExtractFromImage(ctx context.Context, imageBase64 string) ([]domain.ExtractedMention, error) {
	s.imageCalls++
	return s.mentions, s.err
}

func (s *stubGateway) ExtractFromAudio(ctx context.Context, audio []byte, filename string) ([]domain.ExtractedMention, error) {
	s.audioCalls++
	return s.mentions, s.err
}

func TestCachedGateway(t *testing.T) {
	ctx := context.Background()
	mentions := []domain.ExtractedMention{
		{Name: "Farinha de Trigo", Quantity: 2, Unit: domain.UnitKilogram},
	}

	t.Run("repeated image hits the cache", func(t *testing.T) {
		stub := &stubGateway{mentions: mentions}
		gateway := NewCachedGateway(stub, cache.NewMemoryCache(), time.Minute, nil)

		first, err := gateway.ExtractFromImage(ctx, "c2FtZS1pbWFnZQ==")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := gateway.ExtractFromImage(ctx, "c2FtZS1pbWFnZQ==")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if stub.imageCalls != 1 {
			t.Errorf("gateway called %d times, want 1", stub.imageCalls)
		}
		if len(first) != 1 || len(second) != 1 {
			t.Fatalf("results = %d/%d mentions, want 1/1", len(first), len(second))
		}
		if second[0].Name != first[0].Name || second[0].Unit != first[0].Unit {
			t.Errorf("cached result %+v differs from original %+v", second[0], first[0])
		}
	})

	t.Run("distinct images miss the cache", func(t *testing.T) {
		stub := &stubGateway{mentions: mentions}
		gateway := NewCachedGateway(stub, cache.NewMemoryCache(), time.Minute, nil)

		if _, err := gateway.ExtractFromImage(ctx, "aW1hZ2Ux"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := gateway.ExtractFromImage(ctx, "aW1hZ2Uy"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if stub.imageCalls != 2 {
			t.Errorf("gateway called %d times, want 2", stub.imageCalls)
		}
	})

	t.Run("repeated audio hits the cache regardless of filename", func(t *testing.T) {
		stub := &stubGateway{mentions: mentions}
		gateway := NewCachedGateway(stub, cache.NewMemoryCache(), time.Minute, nil)

		if _, err := gateway.ExtractFromAudio(ctx, []byte("clip"), "a.m4a"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := gateway.ExtractFromAudio(ctx, []byte("clip"), "b.m4a"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if stub.audioCalls != 1 {
			t.Errorf("gateway called %d times, want 1", stub.audioCalls)
		}
	})

	t.Run("errors are not cached", func(t *testing.T) {
		stub := &stubGateway{err: domain.ErrExtractionFailure}
		gateway := NewCachedGateway(stub, cache.NewMemoryCache(), time.Minute, nil)

		if _, err := gateway.ExtractFromImage(ctx, "aW1hZ2U="); !errors.Is(err, domain.ErrExtractionFailure) {
			t.Fatalf("err = %v, want ErrExtractionFailure", err)
		}
		if _, err := gateway.ExtractFromImage(ctx, "aW1hZ2U="); !errors.Is(err, domain.ErrExtractionFailure) {
			t.Fatalf("err = %v, want ErrExtractionFailure", err)
		}

		if stub.imageCalls != 2 {
			t.Errorf("gateway called %d times, want 2 (failures must not cache)", stub.imageCalls)
		}
	})
}
