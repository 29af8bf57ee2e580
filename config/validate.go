package config

import (
	"fmt"

	nativecommon "launchpad/native/common"
)

// MaxRoyaltyCapBps is the largest accepted royalty ceiling.
const MaxRoyaltyCapBps = 10_000

var knownPauses = map[string]struct{}{
	nativecommon.ModuleProject:      {},
	nativecommon.ModuleSale:         {},
	nativecommon.ModuleDistribution: {},
}

func ValidateConfig(c *Config) error {
	if c == nil {
		return fmt.Errorf("config: nil")
	}
	if _, err := c.SuperAdminAddress(); err != nil {
		return err
	}
	if _, err := c.TreasuryAddress(); err != nil {
		return err
	}
	if _, err := c.AdminAddresses(); err != nil {
		return err
	}
	if _, err := c.ControllerAddresses(); err != nil {
		return err
	}
	if _, err := c.GenesisBalances(); err != nil {
		return err
	}
	if c.RoyaltyCapBps > MaxRoyaltyCapBps {
		return fmt.Errorf("RoyaltyCapBps: %d exceeds %d", c.RoyaltyCapBps, MaxRoyaltyCapBps)
	}
	if c.RPC.RequestsPerMinute < 0 || c.RPC.Burst < 0 {
		return fmt.Errorf("RPC: rate limits must not be negative")
	}
	for module := range c.Pauses {
		if _, ok := knownPauses[module]; !ok {
			return fmt.Errorf("Pauses: unknown module %q", module)
		}
	}
	return nil
}
