package provider

import (
	"strings"
	"testing"
)

func Test_Config_Validate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"ollama needs nothing", Config{Backend: BackendOllama}, ""},
		{"openai needs key", Config{Backend: BackendOpenAI}, "API key"},
		{"openai with key", Config{Backend: BackendOpenAI, APIKey: "sk-x"}, ""},
		{"ark needs key", Config{Backend: BackendArk}, "API key"},
		{"gemini needs key", Config{Backend: BackendGemini}, "API key"},
		{"azure needs key", Config{Backend: BackendAzure}, "AZURE_OPENAI_API_KEY"},
		{"azure needs endpoint", Config{Backend: BackendAzure, APIKey: "k"}, "AZURE_OPENAI_ENDPOINT"},
		{"azure needs deployment", Config{Backend: BackendAzure, APIKey: "k", BaseURL: "https://r.openai.azure.com"}, "AZURE_OPENAI_DEPLOYMENT"},
		{"azure complete", Config{Backend: BackendAzure, APIKey: "k", BaseURL: "https://r.openai.azure.com", AzureDeployment: "gpt-4o"}, ""},
		{"unknown backend", Config{Backend: "watsonx"}, "unknown backend"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("want error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func Test_NewFromEnv_BackendSelection(t *testing.T) {
	t.Setenv("MODEL_PROVIDER", "watsonx")

	if _, err := NewFromEnv(t.Context()); err == nil {
		t.Fatal("want error for unknown MODEL_PROVIDER")
	}
}
