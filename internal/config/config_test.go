package config

import (
	"testing"
	"time"
)

func TestLoadIncludesCorpusBoundDefaults(t *testing.T) {
	t.Setenv("APPLICABILITY_CORPUS_CHARS", "")
	t.Setenv("RESEARCH_CORPUS_CHARS", "")
	t.Setenv("SEARCH_CORPUS_CHARS", "")
	t.Setenv("INTAKE_CORPUS_CHARS", "")
	t.Setenv("NATS_SUBJECT", "")

	cfg := Load()
	if cfg.ApplicabilityCorpusChars != 5000 {
		t.Fatalf("expected applicability bound 5000, got %d", cfg.ApplicabilityCorpusChars)
	}
	if cfg.ResearchCorpusChars != 10000 {
		t.Fatalf("expected research bound 10000, got %d", cfg.ResearchCorpusChars)
	}
	if cfg.SearchCorpusChars != 12000 {
		t.Fatalf("expected search bound 12000, got %d", cfg.SearchCorpusChars)
	}
	if cfg.IntakeCorpusChars != 10000 {
		t.Fatalf("expected intake bound 10000, got %d", cfg.IntakeCorpusChars)
	}
	if cfg.NATSSubject != "clauses.completed" {
		t.Fatalf("expected default subject, got %q", cfg.NATSSubject)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "Gemini")
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("LLM_RATE_PER_MINUTE", "30")
	t.Setenv("LLM_BREAKER_ENABLED", "false")
	t.Setenv("SEARCH_CORPUS_CHARS", "not-a-number")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("CASE_STORE", "memory")

	cfg := Load()
	if cfg.LLMProvider != "gemini" {
		t.Fatalf("expected lower-cased provider, got %q", cfg.LLMProvider)
	}
	if cfg.LLMRatePerMinute != 30 || cfg.LLMBreakerEnabled {
		t.Fatalf("unexpected llm settings: rate=%d breaker=%v", cfg.LLMRatePerMinute, cfg.LLMBreakerEnabled)
	}
	if cfg.SearchCorpusChars != 12000 {
		t.Fatalf("invalid int must fall back, got %d", cfg.SearchCorpusChars)
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Fatalf("expected 3s shutdown timeout, got %v", cfg.ShutdownTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidateRejectsMissingProviderCredentials(t *testing.T) {
	cfg := Config{LLMProvider: "openai", CaseStore: "postgres"}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error without OPENAI_API_KEY")
	}
	cfg = Config{LLMProvider: "claude", CaseStore: "postgres"}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
	cfg = Config{LLMProvider: "ollama", OllamaURL: "http://x", CaseStore: "sqlite"}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for unknown case store")
	}
}
