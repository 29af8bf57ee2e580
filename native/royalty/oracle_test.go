package royalty

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	nhbstate "launchpad/core/state"
	"launchpad/native/assets"
	"launchpad/native/custody"
	"launchpad/storage"
)

type staticProjects map[uint64]common.Address

func (s staticProjects) CollectionOf(id uint64) (common.Address, error) { return s[id], nil }

func newOracle(t *testing.T, receiver common.Address, bps uint64) (*Oracle, common.Address) {
	t.Helper()
	ledger := assets.NewEngine()
	ledger.SetState(nhbstate.NewManager(storage.NewMemDB()))
	owner := common.HexToAddress("0x01")
	col, err := ledger.Deploy(owner, "Art", "ART", true, receiver, bps)
	if err != nil {
		t.Fatalf("deploy: %v", err)
	}
	if _, err := ledger.MintBatch(owner, col, owner, []uint64{1}); err != nil {
		t.Fatalf("mint: %v", err)
	}
	oracle := NewOracle(custody.NewRouter(ledger))
	oracle.SetProjects(staticProjects{1: col})
	return oracle, col
}

func TestRoyaltyCappedAndTruncated(t *testing.T) {
	receiver := common.HexToAddress("0xcc")
	oracle, _ := newOracle(t, receiver, 2500)

	info, err := oracle.GetRoyaltyInfo(1, 1, big.NewInt(1_999))
	if err != nil {
		t.Fatalf("royalty: %v", err)
	}
	if !info.Supported || info.Receiver != receiver || info.RateBps != DefaultCapBps {
		t.Fatalf("unexpected info %+v", info)
	}
	if info.Amount.Int64() != 199 {
		t.Fatalf("expected truncated 199, got %s", info.Amount)
	}

	if err := oracle.SetCap(3000); err != nil {
		t.Fatalf("set cap: %v", err)
	}
	info, _ = oracle.GetRoyaltyInfo(1, 1, big.NewInt(1_000))
	if info.RateBps != 2500 || info.Amount.Int64() != 250 {
		t.Fatalf("declared rate below cap should apply, got %+v", info)
	}
	if err := oracle.SetCap(BpsDenominator + 1); err == nil {
		t.Fatalf("expected cap bound")
	}
}

func TestRoyaltyUnsupportedIsZero(t *testing.T) {
	oracle, col := newOracle(t, common.Address{}, 0)
	info, err := oracle.Info(col, 1, big.NewInt(5_000))
	if err != nil {
		t.Fatalf("royalty: %v", err)
	}
	if info.Supported || info.Amount.Sign() != 0 {
		t.Fatalf("expected zero unsupported royalty, got %+v", info)
	}
}

func TestAmountBounds(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 256)
	if _, err := Amount(huge, 100); err == nil {
		t.Fatalf("expected overflow error")
	}
	max := new(big.Int).Sub(huge, big.NewInt(1))
	got, err := Amount(max, BpsDenominator)
	if err != nil || got.Cmp(max) != 0 {
		t.Fatalf("full rate on max value should be exact: %s (%v)", got, err)
	}
}
