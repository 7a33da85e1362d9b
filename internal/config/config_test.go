package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/jessevdk/go-flags"

	"solana-buy-ranking/internal/discovery"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, rest, err := Load(nil, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(rest) != 0 {
		t.Errorf("unexpected positional args %v", rest)
	}
	if cfg.SignatureLimit != 50 || cfg.MaxSignatures != 200 || cfg.RankingLimit != 10 {
		t.Errorf("unexpected limits %+v", cfg)
	}
	if cfg.FetchConcurrency != 4 || cfg.RPCRateLimit != 10 || cfg.QueryTimeout != 60*time.Second {
		t.Errorf("unexpected fetch settings %+v", cfg)
	}
	if cfg.StorageBackend != StorageMemory || cfg.RPCClient != RPCClientJSON || cfg.HTTPAddr != ":8080" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.ClickHouseDSN != "" {
		t.Errorf("archive should be disabled by default")
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("SOLANA_RPC_URL", "http://localhost:8899")
	t.Setenv("RPC_CLIENT", "sdk")
	t.Setenv("SIGNATURE_LIMIT", "25")
	t.Setenv("QUERY_TIMEOUT", "15s")
	t.Setenv("DEX_PROGRAMS", "raydium,jupiter")
	t.Setenv("STORAGE_BACKEND", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/x.db")
	t.Setenv("LOG_DEV", "true")

	cfg, _, err := Load(nil, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RPCURL != "http://localhost:8899" || cfg.RPCClient != RPCClientSDK {
		t.Errorf("unexpected rpc settings %+v", cfg)
	}
	if cfg.SignatureLimit != 25 || cfg.QueryTimeout != 15*time.Second || !cfg.LogDev {
		t.Errorf("unexpected values %+v", cfg)
	}

	programs, err := cfg.Programs()
	if err != nil {
		t.Fatalf("Programs: %v", err)
	}
	want := []string{discovery.RaydiumAMMV4, discovery.JupiterV6}
	if !reflect.DeepEqual(programs, want) {
		t.Errorf("programs = %v, want %v", programs, want)
	}
}

func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("RANKING_LIMIT", "5")

	cfg, _, err := Load([]string{"--ranking-limit", "20"}, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RankingLimit != 20 {
		t.Errorf("expected flag to win, got %d", cfg.RankingLimit)
	}
}

func TestLoad_CommandOptions(t *testing.T) {
	var opts struct {
		Token string `long:"token" required:"true"`
		Limit int    `long:"limit" default:"3"`
	}

	_, _, err := Load([]string{"--token", "Mint111"}, &opts)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if opts.Token != "Mint111" || opts.Limit != 3 {
		t.Errorf("unexpected command options %+v", opts)
	}

	var missing struct {
		Token string `long:"token" required:"true"`
	}
	_, _, err = Load(nil, &missing)
	var flagsErr *flags.Error
	if !errors.As(err, &flagsErr) || flagsErr.Type != flags.ErrRequired {
		t.Errorf("expected required flag error, got %v", err)
	}
}

func TestLoad_InvalidChoice(t *testing.T) {
	if _, _, err := Load([]string{"--storage", "redis"}, nil); err == nil {
		t.Fatal("expected error for unknown storage backend")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			RPCURL:           "http://rpc",
			RPCClient:        RPCClientJSON,
			SignatureLimit:   50,
			MaxSignatures:    200,
			FetchConcurrency: 4,
			QueryTimeout:     time.Minute,
			RankingLimit:     10,
			StorageBackend:   StorageMemory,
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "no rpc", mutate: func(c *Config) { c.RPCURL = "" }},
		{name: "page too large", mutate: func(c *Config) { c.SignatureLimit = 5000 }},
		{name: "max below page", mutate: func(c *Config) { c.MaxSignatures = 10 }},
		{name: "no concurrency", mutate: func(c *Config) { c.FetchConcurrency = 0 }},
		{name: "negative rate", mutate: func(c *Config) { c.RPCRateLimit = -1 }},
		{name: "no timeout", mutate: func(c *Config) { c.QueryTimeout = 0 }},
		{name: "no limit", mutate: func(c *Config) { c.RankingLimit = 0 }},
		{name: "postgres without dsn", mutate: func(c *Config) { c.StorageBackend = StoragePostgres }},
		{name: "sqlite without path", mutate: func(c *Config) { c.StorageBackend = StorageSQLite }},
		{name: "bad program", mutate: func(c *Config) { c.DEXPrograms = []string{"uniswap"} }},
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("baseline invalid: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			if err := c.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestValidateBot(t *testing.T) {
	c := &Config{HTTPAddr: ":8080"}
	if err := c.ValidateBot(); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected missing token error, got %v", err)
	}
	c.TelegramToken = "123:abc"
	if err := c.ValidateBot(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("BUY_RANKING_TEST_A=from-file\nBUY_RANKING_TEST_B=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BUY_RANKING_TEST_B", "from-env")
	t.Cleanup(func() { os.Unsetenv("BUY_RANKING_TEST_A") })

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("BUY_RANKING_TEST_A"); got != "from-file" {
		t.Errorf("A = %q", got)
	}
	if got := os.Getenv("BUY_RANKING_TEST_B"); got != "from-env" {
		t.Errorf("existing variable overridden: %q", got)
	}
}

func TestPrograms_UnknownNameWithoutValidate(t *testing.T) {
	cfg := &Config{DEXPrograms: []string{"raydium", "uniswap"}}
	if programs, err := cfg.Programs(); err == nil {
		t.Fatalf("expected error for unknown program, got %v", programs)
	}
}
