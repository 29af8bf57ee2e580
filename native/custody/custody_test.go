package custody

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	nhbstate "launchpad/core/state"
	"launchpad/native/assets"
	nativecommon "launchpad/native/common"
	"launchpad/storage"
)

func TestModuleAddressesAreDistinct(t *testing.T) {
	if EscrowAccount == VaultAccount || EscrowAccount == PaymentsAccount || VaultAccount == PaymentsAccount {
		t.Fatalf("module accounts collide")
	}
	if ModuleAddress("sale.escrow") != EscrowAccount {
		t.Fatalf("module address derivation is not deterministic")
	}
}

func TestRouterDispatchesByKind(t *testing.T) {
	ledger := assets.NewEngine()
	ledger.SetState(nhbstate.NewManager(storage.NewMemDB()))
	owner := common.HexToAddress("0x01")
	single, _ := ledger.Deploy(owner, "One", "ONE", true, common.Address{}, 0)
	multi, _ := ledger.Deploy(owner, "Many", "MNY", false, common.Address{}, 0)
	if _, err := ledger.MintBatch(owner, single, owner, []uint64{1}); err != nil {
		t.Fatalf("mint single: %v", err)
	}
	if _, err := ledger.MintBatch(owner, multi, owner, []uint64{5}); err != nil {
		t.Fatalf("mint multi: %v", err)
	}
	router := NewRouter(ledger)

	sa, err := router.For(single)
	if err != nil || !sa.IsSingle() {
		t.Fatalf("expected single adapter (%v)", err)
	}
	if err := sa.TransferUnit(owner, owner, EscrowAccount, 1, 2); !errors.Is(err, nativecommon.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if err := sa.TransferUnit(owner, owner, EscrowAccount, 1, 1); err != nil {
		t.Fatalf("single transfer: %v", err)
	}
	if bal, _ := sa.BalanceOf(EscrowAccount, 1); bal != 1 {
		t.Fatalf("escrow balance %d", bal)
	}

	ba, err := router.For(multi)
	if err != nil || ba.IsSingle() {
		t.Fatalf("expected batch adapter (%v)", err)
	}
	if err := ba.TransferUnit(owner, owner, EscrowAccount, 1, 5); err != nil {
		t.Fatalf("batch transfer: %v", err)
	}
	if bal, _ := ba.BalanceOf(EscrowAccount, 1); bal != 5 {
		t.Fatalf("escrow balance %d", bal)
	}

	if _, err := router.For(common.HexToAddress("0xdead")); !errors.Is(err, nativecommon.ErrCollectionNotFound) {
		t.Fatalf("expected ErrCollectionNotFound, got %v", err)
	}
}
