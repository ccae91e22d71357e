package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocklens/backend/internal/domain"
)

func newTestClient(baseURL string) *Client {
	return NewClient(ClientConfig{
		APIKey:  "test-api-key",
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
	}, nil)
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(ClientConfig{APIKey: "key"}, nil)

	assert.NotNil(t, client)
	assert.Equal(t, "gpt-4o-mini", client.visionModel)
	assert.Equal(t, "whisper-1", client.transcriptionModel)
	assert.NotNil(t, client.http)
	assert.NotNil(t, client.rateLimiter)
}

func TestExtractFromImage_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 1)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{
					"content": `[{"nome": "Farinha de Trigo", "quantidade": 2, "unidade": "kg"}]`,
				}},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	mentions, err := client.ExtractFromImage(context.Background(), "aW1hZ2VieXRlcw==")
	require.NoError(t, err)
	require.Len(t, mentions, 1)
	assert.Equal(t, "Farinha de Trigo", mentions[0].Name)
	assert.Equal(t, 2.0, mentions[0].Quantity)
	assert.Equal(t, domain.UnitKilogram, mentions[0].Unit)
}

func TestExtractFromImage_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "invalid api key", "code": "invalid_api_key"},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.ExtractFromImage(context.Background(), "aW1hZ2U=")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrExtractionFailure))
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestExtractFromImage_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.ExtractFromImage(context.Background(), "aW1hZ2U=")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrExtractionFailure))
}

func TestExtractFromAudio_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/audio/transcriptions":
			require.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "whisper-1", r.FormValue("model"))
			assert.Equal(t, "pt", r.FormValue("language"))

			_, _, err := r.FormFile("file")
			require.NoError(t, err)

			_ = json.NewEncoder(w).Encode(map[string]string{
				"text": "vou usar dois quilos de farinha",
			})

		case "/chat/completions":
			var req chatRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			content, ok := req.Messages[0].Content.(string)
			require.True(t, ok)
			assert.Contains(t, content, "vou usar dois quilos de farinha")

			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"choices": []map[string]interface{}{
					{"message": map[string]string{
						"content": `[{"nome": "farinha", "quantidade": 2, "unidade": "kg"}]`,
					}},
				},
			})

		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	mentions, err := client.ExtractFromAudio(context.Background(), []byte("fake-audio"), "recording.m4a")
	require.NoError(t, err)
	require.Len(t, mentions, 1)
	assert.Equal(t, "farinha", mentions[0].Name)
	assert.Equal(t, domain.UnitKilogram, mentions[0].Unit)
}

func TestExtractFromAudio_TranscriptionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.ExtractFromAudio(context.Background(), []byte("noise"), "recording.m4a")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrExtractionFailure))
}

func TestClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := client.ExtractFromImage(ctx, "aW1hZ2U=")
	require.Error(t, err)
}
