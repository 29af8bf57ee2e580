package distribution

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"launchpad/core/events"
	nhbstate "launchpad/core/state"
	"launchpad/native/assets"
	nativecommon "launchpad/native/common"
	"launchpad/native/custody"
	"launchpad/native/project"
	"launchpad/native/sale"
	"launchpad/storage"
)

var (
	testCollection = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	testRecipient  = common.HexToAddress("0x00000000000000000000000000000000000000d1")
	testStranger   = common.HexToAddress("0x00000000000000000000000000000000000000d2")
)

const distributionStart = 5_000

type fakeProjects struct{}

func (fakeProjects) Project(id uint64) (*project.Project, error) {
	return &project.Project{ID: id, Collection: testCollection, IDO: project.IDO{
		JoinStart: 1_000, JoinEnd: 2_000, SaleStart: 3_000, SaleEnd: 4_000, DistributionStart: distributionStart,
	}}, nil
}

type fakeSales struct {
	status sale.Status
}

func (f *fakeSales) Sale(id uint64) (*sale.Sale, error) {
	return &sale.Sale{ID: id, ProjectID: 1, Collection: testCollection, AssetID: 9, Quantity: 1, Status: f.status}, nil
}

type transferCall struct {
	operator, from, to common.Address
	assetID, qty       uint64
}

// recordingAdapter logs every transfer and optionally runs a hook inside it.
type recordingAdapter struct {
	calls  []transferCall
	onMove func() error
}

func (a *recordingAdapter) IsSingle() bool { return true }

func (a *recordingAdapter) TransferUnit(operator, from, to common.Address, assetID, qty uint64) error {
	a.calls = append(a.calls, transferCall{operator, from, to, assetID, qty})
	if a.onMove != nil {
		return a.onMove()
	}
	return nil
}

func (a *recordingAdapter) BalanceOf(common.Address, uint64) (uint64, error) { return 0, nil }

func (a *recordingAdapter) RoyaltyOf(uint64) (assets.Royalty, error) { return assets.Royalty{}, nil }

type fixedAdapters struct {
	adapter custody.Adapter
}

func (f fixedAdapters) For(common.Address) (custody.Adapter, error) { return f.adapter, nil }

type fixture struct {
	vault   *Vault
	state   *nhbstate.Manager
	adapter *recordingAdapter
	sales   *fakeSales
	rec     *events.Recorder
	now     int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		state:   nhbstate.NewManager(storage.NewMemDB()),
		adapter: &recordingAdapter{},
		sales:   &fakeSales{status: sale.StatusSold},
		rec:     &events.Recorder{},
		now:     distributionStart,
	}
	f.vault = NewVault()
	f.vault.SetState(f.state)
	f.vault.SetProjects(fakeProjects{})
	f.vault.SetSales(f.sales)
	f.vault.SetAdapters(fixedAdapters{adapter: f.adapter})
	f.vault.SetEmitter(f.rec)
	f.vault.SetNowFunc(func() int64 { return f.now })
	if _, err := f.vault.CreateRecord(1, 1, testRecipient, testCollection, 9, 1); err != nil {
		t.Fatalf("create record: %v", err)
	}
	return f
}

func TestCreateRecordOncePerSale(t *testing.T) {
	f := newFixture(t)
	if _, err := f.vault.CreateRecord(1, 1, testStranger, testCollection, 9, 1); !errors.Is(err, errDuplicateRecord) {
		t.Fatalf("expected duplicate record error, got %v", err)
	}
	rec, err := f.vault.Record(1)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec.Recipient != testRecipient || rec.Claimed {
		t.Fatalf("unexpected record %+v", rec)
	}
	last, err := f.vault.LastRecordID()
	if err != nil || last != 1 {
		t.Fatalf("last record id %d (%v)", last, err)
	}
}

func TestClaimReleasesExactlyOnce(t *testing.T) {
	f := newFixture(t)
	if err := f.vault.Claim(testRecipient, 1); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if len(f.adapter.calls) != 1 {
		t.Fatalf("expected one transfer, got %d", len(f.adapter.calls))
	}
	call := f.adapter.calls[0]
	if call.operator != custody.VaultAccount || call.from != custody.VaultAccount || call.to != testRecipient || call.assetID != 9 || call.qty != 1 {
		t.Fatalf("unexpected transfer %+v", call)
	}
	if err := f.vault.Claim(testRecipient, 1); !errors.Is(err, nativecommon.ErrAlreadyClaimed) {
		t.Fatalf("expected already claimed, got %v", err)
	}
	if len(f.adapter.calls) != 1 {
		t.Fatalf("second claim moved the unit again")
	}
	if got := len(f.rec.OfType(EventTypeClaimed)); got != 1 {
		t.Fatalf("expected one claim event, got %d", got)
	}
}

func TestClaimRejections(t *testing.T) {
	f := newFixture(t)
	if err := f.vault.Claim(testStranger, 1); !errors.Is(err, nativecommon.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if err := f.vault.Claim(testRecipient, 2); !errors.Is(err, nativecommon.ErrRecordNotFound) {
		t.Fatalf("expected record not found, got %v", err)
	}
	f.now = distributionStart - 1
	if err := f.vault.Claim(testRecipient, 1); !errors.Is(err, nativecommon.ErrNotYetOpen) {
		t.Fatalf("expected not yet open, got %v", err)
	}
	f.now = distributionStart
	f.sales.status = sale.StatusClosed
	if err := f.vault.Claim(testRecipient, 1); !errors.Is(err, nativecommon.ErrSaleNotOpen) {
		t.Fatalf("expected sale not sold, got %v", err)
	}
	if len(f.adapter.calls) != 0 {
		t.Fatalf("rejected claims moved units")
	}
}

func TestClaimIsReentrancySafe(t *testing.T) {
	f := newFixture(t)
	var inner error
	f.adapter.onMove = func() error {
		inner = f.vault.Claim(testRecipient, 1)
		return nil
	}
	if err := f.vault.Claim(testRecipient, 1); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if !errors.Is(inner, nativecommon.ErrAlreadyClaimed) {
		t.Fatalf("reentrant claim should see the claimed flag, got %v", inner)
	}
	if len(f.adapter.calls) != 1 {
		t.Fatalf("reentrant claim moved the unit %d times", len(f.adapter.calls))
	}
}

func TestFailedReleaseKeepsRecordClaimable(t *testing.T) {
	f := newFixture(t)
	f.adapter.onMove = func() error { return fmt.Errorf("receiver rejected unit") }
	err := f.vault.Claim(testRecipient, 1)
	if !errors.Is(err, nativecommon.ErrTransfer) {
		t.Fatalf("expected transfer error, got %v", err)
	}
	rec, err := f.vault.Record(1)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec.Claimed {
		t.Fatalf("failed release must roll back the claimed flag")
	}
	if got := len(f.rec.OfType(EventTypeClaimed)); got != 0 {
		t.Fatalf("failed release emitted %d claim events", got)
	}
}

func TestPausedVaultRejectsClaims(t *testing.T) {
	f := newFixture(t)
	f.vault.SetPauses(nativecommon.Pauses{nativecommon.ModuleDistribution: true})
	if err := f.vault.Claim(testRecipient, 1); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("expected paused, got %v", err)
	}
}
