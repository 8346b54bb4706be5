package config

import (
	"os"
	"testing"
)

func TestValidate_UnknownEngine(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
		Ranking: RankingConfig{
			Engines: map[string]float64{"neural": 1.0},
		},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown engine")
	}

	expected := `ranking.engines: unknown engine "neural"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_ValidEngines(t *testing.T) {
	validEngines := []string{"hybrid", "keyword", "semantic"}

	for _, engine := range validEngines {
		t.Run("engine="+engine, func(t *testing.T) {
			cfg := Config{
				HTTP: HTTPConfig{Port: 8080},
				Database: DatabaseConfig{
					Addrs: []string{"localhost:6379"},
				},
				Ranking: RankingConfig{
					Engines: map[string]float64{engine: 1.0},
				},
			}

			err := cfg.Validate()
			if err != nil {
				t.Fatalf("unexpected error for valid engine %q: %v", engine, err)
			}
		})
	}
}

func TestValidate_NonPositiveEngineWeight(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
		Ranking: RankingConfig{
			Engines: map[string]float64{"hybrid": 0},
		},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for non-positive engine weight")
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 0},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingRedisAddrs(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{},
		},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing redis addrs")
	}
}

func TestValidate_MaxResultsCap(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
		Ranking: RankingConfig{MaxResults: 51},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for max_results above the cap")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 30 {
		t.Errorf("expected WriteTimeoutSec=30, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Embedding.Dimensions != 384 {
		t.Errorf("expected Dimensions=384, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.AI.Limits.RequestsPerMinute != 15 {
		t.Errorf("expected RequestsPerMinute=15, got %d", cfg.AI.Limits.RequestsPerMinute)
	}
	if cfg.AI.Limits.RequestsPerDay != 1500 {
		t.Errorf("expected RequestsPerDay=1500, got %d", cfg.AI.Limits.RequestsPerDay)
	}
	if len(cfg.Ranking.Engines) != 3 {
		t.Errorf("expected 3 default engines, got %d", len(cfg.Ranking.Engines))
	}
	if cfg.Ranking.Engines["hybrid"] != 1.2 {
		t.Errorf("expected hybrid weight 1.2, got %v", cfg.Ranking.Engines["hybrid"])
	}
	if cfg.Ranking.TopK != 4 {
		t.Errorf("expected TopK=4, got %d", cfg.Ranking.TopK)
	}
	if cfg.Ranking.MaxResults != 10 {
		t.Errorf("expected MaxResults=10, got %d", cfg.Ranking.MaxResults)
	}
	if cfg.Ranking.EngineTimeoutSec != 20 {
		t.Errorf("expected EngineTimeoutSec=20, got %d", cfg.Ranking.EngineTimeoutSec)
	}
	if cfg.Cache.LocalCapacity != 2048 {
		t.Errorf("expected LocalCapacity=2048, got %d", cfg.Cache.LocalCapacity)
	}
	if cfg.Cache.KeyPrefix != "rankdex:" {
		t.Errorf("expected KeyPrefix='rankdex:', got %q", cfg.Cache.KeyPrefix)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database: DatabaseConfig{ReadinessTimeout: 15},
		Ranking:  RankingConfig{Engines: map[string]float64{"keyword": 2.0}, TopK: 2, MaxResults: 25},
		Cache:    CacheConfig{KeyPrefix: "custom:"},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if len(cfg.Ranking.Engines) != 1 || cfg.Ranking.Engines["keyword"] != 2.0 {
		t.Errorf("expected configured engines to be preserved, got %v", cfg.Ranking.Engines)
	}
	if cfg.Ranking.MaxResults != 25 {
		t.Errorf("expected MaxResults=25, got %d", cfg.Ranking.MaxResults)
	}
	if cfg.Cache.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Cache.KeyPrefix)
	}
}

func TestExpandEnvVars(t *testing.T) {
	os.Setenv("RANKDEX_TEST_KEY", "secret")
	defer os.Unsetenv("RANKDEX_TEST_KEY")

	in := []byte("api_key: ${RANKDEX_TEST_KEY}\nmodel: ${RANKDEX_TEST_MODEL:-gemini-flash}\n")
	out := string(expandEnvVars(in))

	want := "api_key: secret\nmodel: gemini-flash\n"
	if out != want {
		t.Errorf("unexpected expansion:\ngot:  %q\nwant: %q", out, want)
	}
}
