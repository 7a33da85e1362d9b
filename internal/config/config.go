// Package config loads process configuration from flags, the environment,
// and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"solana-buy-ranking/internal/discovery"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

// RPC client flavours.
const (
	RPCClientJSON = "jsonrpc"
	RPCClientSDK  = "sdk"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Config holds the settings shared by all binaries.
type Config struct {
	RPCURL           string        `long:"rpc-url" env:"SOLANA_RPC_URL" description:"Solana JSON-RPC endpoint" default:"https://api.mainnet-beta.solana.com"`
	RPCClient        string        `long:"rpc-client" env:"RPC_CLIENT" description:"RPC client implementation" choice:"jsonrpc" choice:"sdk" default:"jsonrpc"`
	RPCRateLimit     int           `long:"rpc-rate-limit" env:"RPC_RATE_LIMIT" description:"RPC requests per second, 0 disables pacing" default:"10"`
	SignatureLimit   int           `long:"signature-limit" env:"SIGNATURE_LIMIT" description:"signatures per getSignaturesForAddress page" default:"50"`
	MaxSignatures    int           `long:"max-signatures" env:"MAX_SIGNATURES" description:"upper bound on signatures scanned per ranking" default:"200"`
	FetchConcurrency int           `long:"fetch-concurrency" env:"FETCH_CONCURRENCY" description:"parallel getTransaction calls" default:"4"`
	QueryTimeout     time.Duration `long:"query-timeout" env:"QUERY_TIMEOUT" description:"time bound on one ranking query" default:"60s"`
	RankingLimit     int           `long:"ranking-limit" env:"RANKING_LIMIT" description:"entries shown per ranking" default:"10"`
	DEXPrograms      []string      `long:"dex-program" env:"DEX_PROGRAMS" env-delim:"," description:"program IDs or aliases (raydium, pumpfun, jupiter) a buy must touch; empty disables the check"`

	StorageBackend string `long:"storage" env:"STORAGE_BACKEND" description:"competition storage backend" choice:"memory" choice:"postgres" choice:"sqlite" default:"memory"`
	PostgresDSN    string `long:"postgres-dsn" env:"POSTGRES_DSN" description:"PostgreSQL connection string"`
	SQLitePath     string `long:"sqlite-path" env:"SQLITE_PATH" description:"SQLite database file" default:"buy-ranking.db"`
	ClickHouseDSN  string `long:"clickhouse-dsn" env:"CLICKHOUSE_DSN" description:"ClickHouse DSN for the buy-event archive, empty disables it"`

	TelegramToken         string `long:"telegram-token" env:"TELEGRAM_BOT_TOKEN" description:"Telegram bot token"`
	TelegramAPIURL        string `long:"telegram-api-url" env:"TELEGRAM_API_URL" description:"Telegram Bot API base URL" default:"https://api.telegram.org"`
	TelegramBotUsername   string `long:"telegram-bot-username" env:"TELEGRAM_BOT_USERNAME" description:"bot username, commands for other bots are ignored"`
	TelegramWebhookSecret string `long:"telegram-webhook-secret" env:"TELEGRAM_WEBHOOK_SECRET" description:"secret_token expected on webhook requests"`

	HTTPAddr string `long:"http-addr" env:"HTTP_ADDR" description:"webhook, health and metrics listen address" default:":8080"`
	LogDev   bool   `long:"log-dev" env:"LOG_DEV" description:"human-readable development logging"`
}

// LoadDotEnv loads the given .env files (".env" when none are given) without
// overriding variables already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads .env, parses args (without the program name) into a Config and
// the optional binary-specific commandOpts struct, and validates the result.
// Positional arguments left over are returned.
func Load(args []string, commandOpts interface{}) (*Config, []string, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, nil, err
	}

	cfg := &Config{}
	parser := flags.NewParser(cfg, flags.HelpFlag|flags.PassDoubleDash)
	if commandOpts != nil {
		if _, err := parser.AddGroup("Command Options", "", commandOpts); err != nil {
			return nil, nil, fmt.Errorf("add option group: %w", err)
		}
	}

	rest, err := parser.ParseArgs(args)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, rest, nil
}

// Validate rejects inconsistent settings.
func (c *Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("%w: rpc url is required", ErrInvalid)
	}
	if c.SignatureLimit < 1 || c.SignatureLimit > 1000 {
		return fmt.Errorf("%w: signature limit %d outside 1-1000", ErrInvalid, c.SignatureLimit)
	}
	if c.MaxSignatures < c.SignatureLimit {
		return fmt.Errorf("%w: max signatures %d below signature limit %d", ErrInvalid, c.MaxSignatures, c.SignatureLimit)
	}
	if c.FetchConcurrency < 1 {
		return fmt.Errorf("%w: fetch concurrency must be positive", ErrInvalid)
	}
	if c.RPCRateLimit < 0 {
		return fmt.Errorf("%w: rpc rate limit must not be negative", ErrInvalid)
	}
	if c.QueryTimeout <= 0 {
		return fmt.Errorf("%w: query timeout must be positive", ErrInvalid)
	}
	if c.RankingLimit < 1 {
		return fmt.Errorf("%w: ranking limit must be positive", ErrInvalid)
	}

	switch c.StorageBackend {
	case StorageMemory:
	case StoragePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%w: postgres storage requires POSTGRES_DSN", ErrInvalid)
		}
	case StorageSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite storage requires SQLITE_PATH", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalid, c.StorageBackend)
	}

	switch c.RPCClient {
	case RPCClientJSON, RPCClientSDK:
	default:
		return fmt.Errorf("%w: unknown rpc client %q", ErrInvalid, c.RPCClient)
	}

	if _, err := c.Programs(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// ValidateBot additionally checks the settings the Telegram server needs.
func (c *Config) ValidateBot() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("%w: TELEGRAM_BOT_TOKEN is required", ErrInvalid)
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("%w: http addr is required", ErrInvalid)
	}
	return nil
}

// Programs resolves DEXPrograms aliases to program IDs.
func (c *Config) Programs() ([]string, error) {
	return discovery.ResolvePrograms(c.DEXPrograms)
}
