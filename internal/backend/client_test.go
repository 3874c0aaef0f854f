package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"archpanel/internal/domain"
)

func TestGenerateDecodesResult(t *testing.T) {
	var imageServer *httptest.Server
	imageServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer imageServer.Close()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("unexpected auth header: %s", got)
		}
		var payload synthRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if payload.Model != "archviz-xl" {
			t.Fatalf("unexpected model: %s", payload.Model)
		}
		if payload.Seed == nil || *payload.Seed != 1234 {
			t.Fatalf("seed not forwarded: %+v", payload.Seed)
		}
		if payload.Strength != 0.75 {
			t.Fatalf("strength not forwarded: %v", payload.Strength)
		}
		_ = json.NewEncoder(w).Encode(synthResponse{
			ImageURL: imageServer.URL + "/out.png",
			Width:    1024,
			Height:   768,
			SeedUsed: 1234,
		})
	}))
	defer ts.Close()

	client, err := NewClient(Options{APIKey: "test-key", BaseURL: ts.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	got, err := client.Generate(context.Background(), GenerateRequest{
		Prompt:         "two storey house, north elevation",
		Width:          1024,
		Height:         768,
		Seed:           1234,
		ReferenceImage: []byte("ref"),
		Strength:       0.75,
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if got.SeedUsed != 1234 || got.Width != 1024 || got.Height != 768 {
		t.Fatalf("unexpected result: %+v", got)
	}
	if string(got.Data) != "png-bytes" {
		t.Fatalf("image data not downloaded: %q", got.Data)
	}
}

func TestGenerateClassifiesRateLimit(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]string{"code": "Throttling", "message": "slow down"})
	}))
	defer ts.Close()

	client, _ := NewClient(Options{APIKey: "test-key", BaseURL: ts.URL})
	_, err := client.Generate(context.Background(), GenerateRequest{Prompt: "hero view"})
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestGenerateClassifiesGenericFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"code": "InternalError", "message": "boom"})
	}))
	defer ts.Close()

	client, _ := NewClient(Options{APIKey: "test-key", BaseURL: ts.URL})
	_, err := client.Generate(context.Background(), GenerateRequest{Prompt: "hero view"})
	if !errors.Is(err, domain.ErrBackendFailure) {
		t.Fatalf("expected ErrBackendFailure, got %v", err)
	}
	if errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("generic failure misclassified as rate limit")
	}
}

func TestGenerateMissingKey(t *testing.T) {
	client, _ := NewClient(Options{})
	if _, err := client.Generate(context.Background(), GenerateRequest{Prompt: "x"}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}
