package embedder

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func Test_OllamaEmbedder_Embed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		var req ollamaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "mxbai-embed-large" {
			t.Errorf("model: got %q", req.Model)
		}
		if len(req.Input) != 2 {
			t.Errorf("input: got %d texts", len(req.Input))
		}

		resp := ollamaEmbedResponse{Embeddings: [][]float32{{0.1, 0.2}, {0.3, 0.4}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)

	e := NewOllamaEmbedder(&OllamaConfig{Host: srv.URL, Model: "mxbai-embed-large"})

	got, err := e.Embed(t.Context(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(got) != 2 || got[0][1] != 0.2 || got[1][0] != 0.3 {
		t.Errorf("embeddings: %v", got)
	}
}

func Test_OllamaEmbedder_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Error: "model not found"})
	}))
	t.Cleanup(srv.Close)

	e := NewOllamaEmbedder(&OllamaConfig{Host: srv.URL, Model: "missing"})

	_, err := e.Embed(t.Context(), []string{"text"})
	if err == nil || !strings.Contains(err.Error(), "model not found") {
		t.Fatalf("want server error surfaced, got %v", err)
	}
}

func Test_OllamaEmbedder_CountMismatch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Embeddings: [][]float32{{0.1}}})
	}))
	t.Cleanup(srv.Close)

	e := NewOllamaEmbedder(&OllamaConfig{Host: srv.URL, Model: "m"})

	if _, err := e.Embed(t.Context(), []string{"a", "b"}); err == nil {
		t.Fatal("want error on embedding count mismatch")
	}
}

func Test_DefaultDimensions(t *testing.T) {
	cases := []struct {
		backend string
		env     string
		want    int
	}{
		{"ollama", "", 1024},
		{"openai", "", 1536},
		{"azure", "", 1536},
		{"ollama", "768", 768},
	}
	for _, tc := range cases {
		if tc.env != "" {
			t.Setenv("EMBEDDING_DIMENSIONS", tc.env)
		} else {
			t.Setenv("EMBEDDING_DIMENSIONS", "")
		}
		if got := DefaultDimensions(tc.backend); got != tc.want {
			t.Errorf("DefaultDimensions(%q) with env %q = %d, want %d", tc.backend, tc.env, got, tc.want)
		}
	}
}

func Test_LooksLikeChatModel(t *testing.T) {
	t.Parallel()

	chat := []string{"gpt-4o", "llama3.2", "Mistral-7B", "claude-3"}
	for _, m := range chat {
		if !looksLikeChatModel(m) {
			t.Errorf("%q should look like a chat model", m)
		}
	}

	embed := []string{"mxbai-embed-large", "text-embedding-3-small", "nomic-embed-text"}
	for _, m := range embed {
		if looksLikeChatModel(m) {
			t.Errorf("%q should not look like a chat model", m)
		}
	}
}
