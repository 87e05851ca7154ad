package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"mvxlend/core"
	"mvxlend/crypto"
	"mvxlend/native/lending"
)

// Config captures the runtime settings for mvxlendd.
type Config struct {
	ListenAddress        string   `toml:"ListenAddress"`
	DataDir              string   `toml:"DataDir"`
	Env                  string   `toml:"Env"`
	LogFile              string   `toml:"LogFile"`
	ModuleAddress        string   `toml:"ModuleAddress"`
	Treasury             string   `toml:"Treasury"`
	LiquidationRecipient string   `toml:"LiquidationRecipient"`
	Admins               []string `toml:"Admins"`
	Terms                Terms    `toml:"Terms"`
}

// Terms mirrors lending.RiskParameters in file-friendly form. Rating keys
// are the letter tiers; MinPrincipal is a decimal string so values beyond
// int64 range survive the round trip.
type Terms struct {
	TermDays        uint64            `toml:"TermDays"`
	MinPrincipal    string            `toml:"MinPrincipal"`
	LTVBps          map[string]uint64 `toml:"LTVBps"`
	InterestRateBps map[string]uint64 `toml:"InterestRateBps"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		cfg.ListenAddress = "0.0.0.0:8545"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./mvxlend-data"
	}
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "local"
	}
	defaults := defaultTerms()
	if cfg.Terms.TermDays == 0 {
		cfg.Terms.TermDays = defaults.TermDays
	}
	if strings.TrimSpace(cfg.Terms.MinPrincipal) == "" {
		cfg.Terms.MinPrincipal = defaults.MinPrincipal
	}
	if len(cfg.Terms.LTVBps) == 0 {
		cfg.Terms.LTVBps = defaults.LTVBps
	}
	if len(cfg.Terms.InterestRateBps) == 0 {
		cfg.Terms.InterestRateBps = defaults.InterestRateBps
	}
}

func defaultTerms() Terms {
	params := lending.DefaultRiskParameters()
	ltv := make(map[string]uint64, len(params.LTVBps))
	for rating, bps := range params.LTVBps {
		ltv[rating.String()] = bps
	}
	rates := make(map[string]uint64, len(params.InterestRateBps))
	for rating, bps := range params.InterestRateBps {
		rates[rating.String()] = bps
	}
	return Terms{
		TermDays:        params.TermSeconds / (24 * 60 * 60),
		MinPrincipal:    params.MinPrincipal.String(),
		LTVBps:          ltv,
		InterestRateBps: rates,
	}
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{Terms: defaultTerms()}
	applyDefaults(cfg)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RiskParameters converts the file terms into engine parameters.
func (c *Config) RiskParameters() (lending.RiskParameters, error) {
	params := lending.RiskParameters{
		LTVBps:          make(map[lending.Rating]uint64, len(c.Terms.LTVBps)),
		InterestRateBps: make(map[lending.Rating]uint64, len(c.Terms.InterestRateBps)),
		TermSeconds:     c.Terms.TermDays * 24 * 60 * 60,
	}
	for tier, bps := range c.Terms.LTVBps {
		rating, err := lending.ParseRating(tier)
		if err != nil {
			return lending.RiskParameters{}, fmt.Errorf("config: LTV tier: %w", err)
		}
		params.LTVBps[rating] = bps
	}
	for tier, bps := range c.Terms.InterestRateBps {
		rating, err := lending.ParseRating(tier)
		if err != nil {
			return lending.RiskParameters{}, fmt.Errorf("config: rate tier: %w", err)
		}
		params.InterestRateBps[rating] = bps
	}
	minPrincipal, ok := new(big.Int).SetString(strings.TrimSpace(c.Terms.MinPrincipal), 10)
	if !ok || minPrincipal.Sign() < 0 {
		return lending.RiskParameters{}, fmt.Errorf("config: invalid MinPrincipal %q", c.Terms.MinPrincipal)
	}
	params.MinPrincipal = minPrincipal
	return params, nil
}

// NodeConfig resolves the configured addresses into a core.Config.
func (c *Config) NodeConfig() (core.Config, error) {
	params, err := c.RiskParameters()
	if err != nil {
		return core.Config{}, err
	}
	module, err := requireAddress("ModuleAddress", c.ModuleAddress)
	if err != nil {
		return core.Config{}, err
	}
	treasury, err := requireAddress("Treasury", c.Treasury)
	if err != nil {
		return core.Config{}, err
	}
	nodeCfg := core.Config{
		ModuleAddress: module,
		Treasury:      treasury,
		Params:        params,
	}
	if strings.TrimSpace(c.LiquidationRecipient) != "" {
		recipient, err := requireAddress("LiquidationRecipient", c.LiquidationRecipient)
		if err != nil {
			return core.Config{}, err
		}
		nodeCfg.LiquidationRecipient = recipient
	}
	for _, admin := range c.Admins {
		addr, err := requireAddress("Admins", admin)
		if err != nil {
			return core.Config{}, err
		}
		nodeCfg.Admins = append(nodeCfg.Admins, addr)
	}
	return nodeCfg, nil
}

func requireAddress(field, value string) (crypto.Address, error) {
	addr, err := crypto.DecodeAddress(strings.TrimSpace(value))
	if err != nil {
		return crypto.Address{}, fmt.Errorf("config: %s: %w", field, err)
	}
	return addr, nil
}
