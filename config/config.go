// Package config loads the bot configuration from yaml or command line flags.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr      = ":8080"
	defaultScanInterval  = 5 * time.Second
	defaultAlertInterval = 30 * time.Second
	defaultAlertJitter   = 5 * time.Second
	defaultWalDir        = "./wal/outcomes"
	defaultPlatform      = "coingecko"
)

// FaucetGrant credits a balance at startup so simulation runs have funds.
type FaucetGrant struct {
	Owner  string          `yaml:"owner"`
	Token  string          `yaml:"token"`
	Amount decimal.Decimal `yaml:"amount"`
}

// Settlement configures the optional on-chain settlement of fills.
type Settlement struct {
	RPCURL         string            `yaml:"rpc_url"`
	PrivateKey     string            `yaml:"private_key"`
	TokenDecimals  int32             `yaml:"token_decimals"`
	Tokens         map[string]string `yaml:"tokens"`
	Recipients     map[string]string `yaml:"recipients"`
	ApproveSpender string            `yaml:"approve_spender"`
	ApproveAmount  decimal.Decimal   `yaml:"approve_amount"`
}

// Enabled reports whether an endpoint is configured.
func (s Settlement) Enabled() bool {
	return s.RPCURL != ""
}

type Config struct {
	Platform      string        `yaml:"platform"`
	HTTPAddr      string        `yaml:"http_addr"`
	ScanInterval  time.Duration `yaml:"scan_interval"`
	AlertInterval time.Duration `yaml:"alert_interval"`
	AlertJitter   time.Duration `yaml:"alert_jitter"`
	WalDir        string        `yaml:"wal_dir"`
	APIKey        string        `yaml:"api_key"`
	APISecret     string        `yaml:"api_secret"`
	HLPrivateKey  string        `yaml:"hl_private_key"`
	HLBaseURL     string        `yaml:"hl_base_url"`
	Faucet        []FaucetGrant `yaml:"faucet"`
	Settlement    Settlement    `yaml:"settlement"`
	Setup         bool          `yaml:"-"`
}

// Get parses flags and loads the yaml config when one is provided. Flags
// override yaml values when set.
func Get() (Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	setup := flag.Bool("setup", false, "run the interactive setup wizard")
	platform := flag.String("platform", "", "price feed platform: binance, bybit, hyperliquid, coingecko or static")
	httpAddr := flag.String("http", "", "http listen address")
	scanInterval := flag.Duration("scaninterval", 0, "pending order scan interval")
	alertInterval := flag.Duration("alertinterval", 0, "price alert check interval")
	flag.Parse()

	cfg := Config{
		Platform:      defaultPlatform,
		HTTPAddr:      defaultHTTPAddr,
		ScanInterval:  defaultScanInterval,
		AlertInterval: defaultAlertInterval,
		AlertJitter:   defaultAlertJitter,
		WalDir:        defaultWalDir,
	}

	if *configPath != "" {
		loaded, err := fromYaml(*configPath)
		if err != nil {
			return Config{}, err
		}
		cfg = loaded
	}

	if *platform != "" {
		cfg.Platform = *platform
	}
	if *httpAddr != "" {
		cfg.HTTPAddr = *httpAddr
	}
	if *scanInterval > 0 {
		cfg.ScanInterval = *scanInterval
	}
	if *alertInterval > 0 {
		cfg.AlertInterval = *alertInterval
	}
	cfg.Setup = *setup

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func fromYaml(path string) (Config, error) {
	cfg := Config{
		Platform:      defaultPlatform,
		HTTPAddr:      defaultHTTPAddr,
		ScanInterval:  defaultScanInterval,
		AlertInterval: defaultAlertInterval,
		AlertJitter:   defaultAlertJitter,
		WalDir:        defaultWalDir,
	}

	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(f, &cfg); err != nil {
		return Config{}, fmt.Errorf("incorrect yaml config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Platform {
	case "binance", "bybit", "hyperliquid", "coingecko", "static":
	default:
		return fmt.Errorf("unsupported platform: %s", c.Platform)
	}

	if c.ScanInterval <= 0 {
		return fmt.Errorf("scan interval must be positive, got %s", c.ScanInterval)
	}
	if c.AlertInterval <= 0 {
		return fmt.Errorf("alert interval must be positive, got %s", c.AlertInterval)
	}

	for _, grant := range c.Faucet {
		if grant.Owner == "" || grant.Token == "" {
			return fmt.Errorf("faucet grant needs owner and token")
		}
		if !grant.Amount.IsPositive() {
			return fmt.Errorf("faucet grant for %s must be positive, got %s", grant.Owner, grant.Amount)
		}
	}

	return nil
}
