package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

const (
	DefaultRoyaltyCapBps     = 1_000
	DefaultRequestsPerMinute = 600
	DefaultBurst             = 60

	// EnvRPCToken overrides RPC.AuthToken when set.
	EnvRPCToken = "LAUNCHPAD_RPC_TOKEN"
	// EnvName tags log lines with the deployment environment.
	EnvName = "LAUNCHPAD_ENV"
)

type Config struct {
	ListenAddress     string          `toml:"ListenAddress"`
	DataDir           string          `toml:"DataDir"`
	NetworkName       string          `toml:"NetworkName"`
	SuperAdmin        string          `toml:"SuperAdmin"`
	SuperAdminKeyPath string          `toml:"SuperAdminKeyPath,omitempty"`
	Admins            []string        `toml:"Admins"`
	Controllers       []string        `toml:"Controllers"`
	PlatformTreasury  string          `toml:"PlatformTreasury"`
	RoyaltyCapBps     uint64          `toml:"RoyaltyCapBps"`
	Pauses            map[string]bool `toml:"Pauses"`
	RPC               RPCConfig       `toml:"RPC"`
	Log               LogConfig       `toml:"Log"`
	Genesis           GenesisConfig   `toml:"Genesis"`
}

// RPCConfig controls the JSON-RPC endpoint. RequestsPerMinute = 0 turns
// throttling off. AllowUnsignedCalls drops the per-request caller signature
// and leaves the bearer token as the only guard.
type RPCConfig struct {
	AuthToken          string `toml:"AuthToken"`
	AllowUnsignedCalls bool   `toml:"AllowUnsignedCalls"`
	RequestsPerMinute  int    `toml:"RequestsPerMinute"`
	Burst              int    `toml:"Burst"`
}

type LogConfig struct {
	Level      string `toml:"Level"`
	File       string `toml:"File"`
	MaxSizeMB  int    `toml:"MaxSizeMB"`
	MaxBackups int    `toml:"MaxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays"`
}

// GenesisConfig lists native coin allocations credited once when the data
// directory is first initialised. Amounts are base-10 integers.
type GenesisConfig struct {
	Balances map[string]string `toml:"Balances"`
}

// Load loads the configuration from the given path. A missing file is
// replaced by a default configuration with a freshly generated super admin
// key stored next to it.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults(meta.IsDefined)
	cfg.ApplyEnv(os.Getenv)
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// applyDefaults fills fields left out of the file. Numeric settings whose
// zero value is meaningful are only defaulted when the key is absent.
func (c *Config) applyDefaults(isDefined func(key ...string) bool) {
	if isDefined == nil {
		isDefined = func(...string) bool { return false }
	}
	if strings.TrimSpace(c.ListenAddress) == "" {
		c.ListenAddress = ":8545"
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./launchpad-data"
	}
	if strings.TrimSpace(c.NetworkName) == "" {
		c.NetworkName = "launchpad-local"
	}
	if !isDefined("RoyaltyCapBps") {
		c.RoyaltyCapBps = DefaultRoyaltyCapBps
	}
	if !isDefined("RPC", "RequestsPerMinute") {
		c.RPC.RequestsPerMinute = DefaultRequestsPerMinute
	}
	if !isDefined("RPC", "Burst") {
		c.RPC.Burst = DefaultBurst
	}
	if strings.TrimSpace(c.Log.Level) == "" {
		c.Log.Level = "info"
	}
	if c.Admins == nil {
		c.Admins = []string{}
	}
	if c.Controllers == nil {
		c.Controllers = []string{}
	}
}

// ApplyEnv overlays environment overrides read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		return
	}
	if token := strings.TrimSpace(getenv(EnvRPCToken)); token != "" {
		c.RPC.AuthToken = token
	}
}

// SuperAdminAddress returns the parsed super admin address.
func (c *Config) SuperAdminAddress() (common.Address, error) {
	return parseAddress("SuperAdmin", c.SuperAdmin)
}

// TreasuryAddress returns the platform payee, defaulting to the super admin.
func (c *Config) TreasuryAddress() (common.Address, error) {
	if strings.TrimSpace(c.PlatformTreasury) == "" {
		return c.SuperAdminAddress()
	}
	return parseAddress("PlatformTreasury", c.PlatformTreasury)
}

func (c *Config) AdminAddresses() ([]common.Address, error) {
	return parseAddresses("Admins", c.Admins)
}

func (c *Config) ControllerAddresses() ([]common.Address, error) {
	return parseAddresses("Controllers", c.Controllers)
}

// GenesisBalances parses the genesis allocations.
func (c *Config) GenesisBalances() (map[common.Address]*big.Int, error) {
	out := make(map[common.Address]*big.Int, len(c.Genesis.Balances))
	for rawAddr, rawAmount := range c.Genesis.Balances {
		addr, err := parseAddress("Genesis.Balances", rawAddr)
		if err != nil {
			return nil, err
		}
		amount, ok := new(big.Int).SetString(strings.TrimSpace(rawAmount), 10)
		if !ok || amount.Sign() < 0 {
			return nil, fmt.Errorf("Genesis.Balances[%s]: invalid amount %q", rawAddr, rawAmount)
		}
		out[addr] = amount
	}
	return out, nil
}

func parseAddress(field, raw string) (common.Address, error) {
	trimmed := strings.TrimSpace(raw)
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, fmt.Errorf("%s: invalid address %q", field, raw)
	}
	addr := common.HexToAddress(trimmed)
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%s: zero address", field)
	}
	return addr, nil
}

func parseAddresses(field string, raw []string) ([]common.Address, error) {
	out := make([]common.Address, 0, len(raw))
	for _, entry := range raw {
		addr, err := parseAddress(field, entry)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	key, err := ethcrypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	keyPath := defaultKeyPath(path)
	if dir := filepath.Dir(keyPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	if err := ethcrypto.SaveECDSA(keyPath, key); err != nil {
		return nil, err
	}

	cfg := &Config{
		SuperAdmin:        ethcrypto.PubkeyToAddress(key.PublicKey).Hex(),
		SuperAdminKeyPath: keyPath,
		Pauses:            map[string]bool{},
		Genesis:           GenesisConfig{Balances: map[string]string{}},
	}
	cfg.applyDefaults(nil)

	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

func defaultKeyPath(configPath string) string {
	dir := filepath.Dir(configPath)
	if dir == "." || dir == "" {
		dir = ""
	}
	return filepath.Join(dir, "superadmin.key")
}
