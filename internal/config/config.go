// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/rovshanmuradov/pumpfun-watcher/internal/dex/dexscreener"
)

type Config struct {
	RPCURL         string         `mapstructure:"rpc_url"`
	WebSocketURL   string         `mapstructure:"websocket_url"`
	DexScreenerURL string         `mapstructure:"dexscreener_url"`
	Commitment     string         `mapstructure:"commitment"`
	AckTimeout     time.Duration  `mapstructure:"ack_timeout"`
	ReadTimeout    time.Duration  `mapstructure:"read_timeout"`
	PingInterval   time.Duration  `mapstructure:"ping_interval"`
	BackoffInitial time.Duration  `mapstructure:"backoff_initial"`
	BackoffMax     time.Duration  `mapstructure:"backoff_max"`
	DebugLogging   bool           `mapstructure:"debug_logging"`
	LogFile        string         `mapstructure:"log_file"`
	MetricsAddr    string         `mapstructure:"metrics_addr"`
	RecordFile     string         `mapstructure:"record_file"`
	Markets        []MarketConfig `mapstructure:"markets"`
}

// MarketConfig описывает отслеживаемый токен. Pair можно не указывать,
// тогда адрес кривой ищется через DexScreener.
type MarketConfig struct {
	Mint string `mapstructure:"mint"`
	Pair string `mapstructure:"pair"`
}

const (
	DefaultRPCURL         = "https://api.mainnet-beta.solana.com"
	DefaultWebSocketURL   = "wss://api.mainnet-beta.solana.com"
	DefaultDexScreenerURL = dexscreener.DefaultBaseURL
	DefaultCommitment     = "confirmed"
	DefaultAckTimeout     = 10 * time.Second
	DefaultReadTimeout    = 30 * time.Second
	DefaultPingInterval   = 10 * time.Second
	DefaultBackoffInitial = time.Second
	DefaultBackoffMax     = 16 * time.Second
	DefaultLogFile        = "watcher.log"

	EnvPrefix = "PUMPFUN_WATCHER"
)

// legacyEnv: короткие имена переменных окружения, поддерживаются для совместимости.
var legacyEnv = map[string]string{
	"rpc_url":       "SOLANA_RPC_URL",
	"websocket_url": "WS_ENDPOINT",
}

// flagKeys связывает имена CLI-флагов с ключами конфигурации.
var flagKeys = map[string]string{
	"rpc-url":       "rpc_url",
	"ws-url":        "websocket_url",
	"dexscreener":   "dexscreener_url",
	"commitment":    "commitment",
	"ack-timeout":   "ack_timeout",
	"read-timeout":  "read_timeout",
	"ping-interval": "ping_interval",
	"debug":         "debug_logging",
	"log-file":      "log_file",
	"metrics-addr":  "metrics_addr",
	"record":        "record_file",
}

// RegisterFlags объявляет флаги, переопределяющие файл и окружение.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("rpc-url", DefaultRPCURL, "Solana JSON-RPC HTTP endpoint")
	fs.String("ws-url", DefaultWebSocketURL, "Solana JSON-RPC websocket endpoint")
	fs.String("dexscreener", DefaultDexScreenerURL, "DexScreener API base URL")
	fs.String("commitment", DefaultCommitment, "subscription commitment: processed, confirmed or finalized")
	fs.Duration("ack-timeout", DefaultAckTimeout, "max wait for the subscription acknowledgement")
	fs.Duration("read-timeout", DefaultReadTimeout, "max silence on a streaming connection")
	fs.Duration("ping-interval", DefaultPingInterval, "websocket keepalive interval, 0 disables")
	fs.Bool("debug", false, "enable debug logging")
	fs.String("log-file", DefaultLogFile, "rotating JSON log file, empty disables")
	fs.String("metrics-addr", "", "serve prometheus metrics on this address, e.g. :9090")
	fs.String("record", "", "append every price to this file (.csv or .jsonl)")
}

// LoadConfig читает конфигурацию: defaults < файл < окружение < флаги.
// path и flags могут быть пустыми.
func LoadConfig(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	defaults := map[string]interface{}{
		"rpc_url":         DefaultRPCURL,
		"websocket_url":   DefaultWebSocketURL,
		"dexscreener_url": DefaultDexScreenerURL,
		"commitment":      DefaultCommitment,
		"ack_timeout":     DefaultAckTimeout,
		"read_timeout":    DefaultReadTimeout,
		"ping_interval":   DefaultPingInterval,
		"backoff_initial": DefaultBackoffInitial,
		"backoff_max":     DefaultBackoffMax,
		"debug_logging":   false,
		"log_file":        DefaultLogFile,
		"metrics_addr":    "",
		"record_file":     "",
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := bindEnvironment(v); err != nil {
		return nil, err
	}
	if err := bindFlags(v, flags); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &cfg, validateConfig(&cfg)
}

func bindEnvironment(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(key)
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}
	return nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	if flags == nil {
		return nil
	}
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return nil
}

func validateConfig(cfg *Config) error {
	if err := validateURL(cfg.RPCURL, "http"); err != nil {
		return fmt.Errorf("invalid rpc_url: %w", err)
	}
	if err := validateURL(cfg.WebSocketURL, "ws"); err != nil {
		return fmt.Errorf("invalid websocket_url: %w", err)
	}
	if err := validateURL(cfg.DexScreenerURL, "http"); err != nil {
		return fmt.Errorf("invalid dexscreener_url: %w", err)
	}

	switch rpc.CommitmentType(cfg.Commitment) {
	case rpc.CommitmentProcessed, rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
	default:
		return fmt.Errorf("invalid commitment %q", cfg.Commitment)
	}

	if err := validateTimings(cfg); err != nil {
		return err
	}

	for i, m := range cfg.Markets {
		if _, err := solana.PublicKeyFromBase58(m.Mint); err != nil {
			return fmt.Errorf("markets[%d]: invalid mint %q: %w", i, m.Mint, err)
		}
		if m.Pair == "" {
			continue
		}
		if _, err := solana.PublicKeyFromBase58(m.Pair); err != nil {
			return fmt.Errorf("markets[%d]: invalid pair %q: %w", i, m.Pair, err)
		}
	}
	return nil
}

func validateTimings(cfg *Config) error {
	if cfg.AckTimeout <= 0 {
		return errors.New("invalid ack_timeout")
	}
	if cfg.ReadTimeout <= 0 {
		return errors.New("invalid read_timeout")
	}
	if cfg.PingInterval < 0 {
		return errors.New("invalid ping_interval")
	}
	if cfg.BackoffInitial <= 0 {
		return errors.New("invalid backoff_initial")
	}
	if cfg.BackoffMax < cfg.BackoffInitial {
		return errors.New("backoff_max must not be less than backoff_initial")
	}
	return nil
}

func validateURL(rawURL string, protocol string) error {
	if rawURL == "" {
		return errors.New("empty URL")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) || parsed.Host == "" {
		return errors.New("invalid URL protocol")
	}
	return nil
}

// Targets разбирает адреса из markets.
func (c *Config) Targets() ([]Target, error) {
	targets := make([]Target, 0, len(c.Markets))
	for _, m := range c.Markets {
		t, err := ParseTarget(m.Pair, m.Mint)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, nil
}

// Target: разобранная пара адресов; нулевой Pair означает «найти через DexScreener».
type Target struct {
	Pair solana.PublicKey
	Mint solana.PublicKey
}

// ParseTarget разбирает base58-адреса; pair может быть пустым.
func ParseTarget(pair, mint string) (Target, error) {
	var t Target
	var err error

	if t.Mint, err = solana.PublicKeyFromBase58(mint); err != nil {
		return t, fmt.Errorf("invalid mint %q: %w", mint, err)
	}
	if pair == "" {
		return t, nil
	}
	if t.Pair, err = solana.PublicKeyFromBase58(pair); err != nil {
		return t, fmt.Errorf("invalid pair %q: %w", pair, err)
	}
	return t, nil
}
