package sale_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"launchpad/core"
	"launchpad/core/events"
	nativecommon "launchpad/native/common"
	"launchpad/native/custody"
	"launchpad/native/project"
	"launchpad/native/sale"
	"launchpad/storage"
)

var (
	superAdmin = common.HexToAddress("0x0000000000000000000000000000000000000a01")
	adminAddr  = common.HexToAddress("0x0000000000000000000000000000000000000a02")
	controller = common.HexToAddress("0x0000000000000000000000000000000000000a03")
	creator    = common.HexToAddress("0x0000000000000000000000000000000000000b01")
	ownerAddr  = common.HexToAddress("0x0000000000000000000000000000000000000b02")
	managerAdr = common.HexToAddress("0x0000000000000000000000000000000000000b03")
	receiver   = common.HexToAddress("0x0000000000000000000000000000000000000b04")
	bidder     = common.HexToAddress("0x0000000000000000000000000000000000000c01")
	bidder2    = common.HexToAddress("0x0000000000000000000000000000000000000c02")
	pauper     = common.HexToAddress("0x0000000000000000000000000000000000000c03")
)

const startTime int64 = 1_000_000

// milli returns n thousandths of a whole coin (1e18 base units).
func milli(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000_000_000))
}

type harness struct {
	t          *testing.T
	node       *core.Node
	rec        *events.Recorder
	now        int64
	collection common.Address
	projectID  uint64
	seller     common.Address
	ido        project.IDO
}

type scenario struct {
	single     bool
	raise      bool
	adminOwned bool
}

func newHarness(t *testing.T, sc scenario) *harness {
	t.Helper()
	h := &harness{t: t, now: startTime}
	node, err := core.NewNode(storage.NewMemDB(), core.Config{
		SuperAdmin:  superAdmin,
		Admins:      []common.Address{adminAddr},
		Controllers: []common.Address{controller},
		Balances: map[common.Address]*big.Int{
			bidder:  milli(10_000),
			bidder2: milli(10_000),
		},
	}, core.WithTimeSource(func() int64 { return h.now }))
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	h.node = node
	h.rec = &events.Recorder{}
	node.Subscribe(h.rec)

	h.collection, err = node.AssetsDeploy(creator, "Genesis Drop", "DROP", sc.single, receiver, 1000)
	if err != nil {
		t.Fatalf("deploy: %v", err)
	}

	if sc.adminOwned {
		h.seller = managerAdr
		h.projectID, err = node.ProjectCreate(adminAddr, h.collection, sc.single, sc.raise)
		if err != nil {
			t.Fatalf("create project: %v", err)
		}
		if err := node.ProjectSetManager(adminAddr, h.projectID, managerAdr); err != nil {
			t.Fatalf("set manager: %v", err)
		}
	} else {
		h.seller = ownerAddr
		h.projectID, err = node.ProjectCreate(ownerAddr, h.collection, sc.single, sc.raise)
		if err != nil {
			t.Fatalf("create project: %v", err)
		}
	}

	quantities := []uint64{1, 1, 1}
	if !sc.single {
		quantities = []uint64{5, 5, 5}
	}
	if _, err := node.AssetsMint(creator, h.collection, h.seller, quantities); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := node.AssetsSetApprovalForAll(h.seller, h.collection, custody.EscrowAccount, true); err != nil {
		t.Fatalf("approve escrow: %v", err)
	}

	saleStart := uint64(startTime) + 300
	h.ido = project.IDO{
		JoinStart:         uint64(startTime) + 100,
		JoinEnd:           uint64(startTime) + 200,
		SaleStart:         saleStart,
		SaleEnd:           saleStart + 100*sale.StepDuration,
		DistributionStart: saleStart + 100*sale.StepDuration + 100,
	}
	if err := node.ProjectSetIDO(h.seller, h.projectID, h.ido); err != nil {
		t.Fatalf("set ido: %v", err)
	}
	return h
}

func (h *harness) at(ts uint64) { h.now = int64(ts) }

func (h *harness) approve(percent uint64) {
	h.t.Helper()
	if err := h.node.ProjectRequestApproval(h.seller, h.projectID, percent); err != nil {
		h.t.Fatalf("request approval: %v", err)
	}
	if err := h.node.ProjectApprove(adminAddr, h.projectID); err != nil {
		h.t.Fatalf("approve: %v", err)
	}
}

func (h *harness) raiseSingle(assetID uint64, price *big.Int) uint64 {
	h.t.Helper()
	ids, err := h.node.SaleCreateRaiseSingle(h.seller, h.projectID, []uint64{assetID}, []*big.Int{price})
	if err != nil {
		h.t.Fatalf("create raise sale: %v", err)
	}
	return ids[0]
}

func (h *harness) admit(saleID uint64, addrs ...common.Address) {
	h.t.Helper()
	if err := h.node.SaleSetWinners(controller, saleID, addrs, true); err != nil {
		h.t.Fatalf("set winners: %v", err)
	}
}

func (h *harness) balance(addr common.Address) *big.Int {
	h.t.Helper()
	bal, err := h.node.Balance(addr)
	if err != nil {
		h.t.Fatalf("balance: %v", err)
	}
	return bal
}

func (h *harness) units(holder common.Address, assetID uint64) uint64 {
	h.t.Helper()
	n, err := h.node.AssetBalance(h.collection, holder, assetID)
	if err != nil {
		h.t.Fatalf("asset balance: %v", err)
	}
	return n
}

func (h *harness) status(saleID uint64) sale.Status {
	h.t.Helper()
	s, err := h.node.Sale(saleID)
	if err != nil {
		h.t.Fatalf("load sale: %v", err)
	}
	return s.Status
}

func expectBig(t *testing.T, label string, got, want *big.Int) {
	t.Helper()
	if got.Cmp(want) != 0 {
		t.Fatalf("%s: got %s, want %s", label, got, want)
	}
}

func expectErr(t *testing.T, err, want error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}

func TestAdminRaiseSettlesAndClaims(t *testing.T) {
	h := newHarness(t, scenario{single: true, raise: true, adminOwned: true})
	saleID := h.raiseSingle(1, milli(1000))
	if got := h.units(custody.EscrowAccount, 1); got != 1 {
		t.Fatalf("escrow should hold the listed unit, holds %d", got)
	}
	h.admit(saleID, bidder)

	h.at(h.ido.SaleStart)
	settlement, err := h.node.SaleBidSingle(bidder, saleID, milli(1000))
	if err != nil {
		t.Fatalf("bid: %v", err)
	}
	expectBig(t, "platform", settlement.Split.Platform, milli(900))
	expectBig(t, "royalty", settlement.Split.Royalty, milli(100))
	expectBig(t, "seller", settlement.Split.Seller, big.NewInt(0))

	expectBig(t, "treasury", h.balance(superAdmin), milli(900))
	expectBig(t, "receiver", h.balance(receiver), milli(100))
	expectBig(t, "manager", h.balance(managerAdr), big.NewInt(0))
	expectBig(t, "bidder", h.balance(bidder), milli(9000))
	expectBig(t, "payments account", h.balance(custody.PaymentsAccount), big.NewInt(0))
	if h.status(saleID) != sale.StatusSold {
		t.Fatalf("sale should be sold")
	}
	if got := h.units(custody.VaultAccount, 1); got != 1 {
		t.Fatalf("vault should hold the sold unit, holds %d", got)
	}
	if got := len(h.rec.OfType(sale.EventTypeBidSettled)); got != 1 {
		t.Fatalf("expected one settlement event, got %d", got)
	}

	expectErr(t, h.node.DistributionClaim(bidder, saleID), nativecommon.ErrNotYetOpen)
	h.at(h.ido.DistributionStart)
	expectErr(t, h.node.DistributionClaim(bidder2, saleID), nativecommon.ErrUnauthorized)
	if err := h.node.DistributionClaim(bidder, saleID); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if got := h.units(bidder, 1); got != 1 {
		t.Fatalf("bidder should hold the unit, holds %d", got)
	}
	expectErr(t, h.node.DistributionClaim(bidder, saleID), nativecommon.ErrAlreadyClaimed)
	rec, err := h.node.Record(saleID)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !rec.Claimed || rec.Recipient != bidder {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestOwnerDutchSettlesWithResidual(t *testing.T) {
	h := newHarness(t, scenario{single: true, raise: false})
	h.approve(25 * project.PercentScale)
	ids, err := h.node.SaleCreateDutchSingle(h.seller, h.projectID, []uint64{1},
		[]*big.Int{milli(2000)}, []*big.Int{milli(200)}, []*big.Int{milli(20)})
	if err != nil {
		t.Fatalf("create dutch sale: %v", err)
	}
	saleID := ids[0]
	h.admit(saleID, bidder)

	h.at(h.ido.SaleStart + 45*sale.StepDuration)
	price, err := h.node.DutchPrice(saleID)
	if err != nil {
		t.Fatalf("dutch price: %v", err)
	}
	expectBig(t, "quoted price", price, milli(1100))

	settlement, err := h.node.SaleBidSingle(bidder, saleID, milli(2000))
	if err != nil {
		t.Fatalf("bid: %v", err)
	}
	split := settlement.Split
	expectBig(t, "gross", split.Gross, milli(1100))
	expectBig(t, "residual", split.Residual, milli(900))
	expectBig(t, "platform", split.Platform, milli(1175))
	expectBig(t, "royalty", split.Royalty, milli(110))
	expectBig(t, "seller", split.Seller, milli(715))
	expectBig(t, "total", split.Total(), milli(2000))

	expectBig(t, "treasury", h.balance(superAdmin), milli(1175))
	expectBig(t, "owner", h.balance(ownerAddr), milli(715))
	expectBig(t, "receiver", h.balance(receiver), milli(110))
	expectBig(t, "bidder", h.balance(bidder), milli(8000))
}

func TestDutchPriceFloorsAtMinimum(t *testing.T) {
	h := newHarness(t, scenario{single: true, raise: false})
	h.approve(10 * project.PercentScale)
	ids, err := h.node.SaleCreateDutchSingle(h.seller, h.projectID, []uint64{1},
		[]*big.Int{milli(2000)}, []*big.Int{milli(200)}, []*big.Int{milli(20)})
	if err != nil {
		t.Fatalf("create dutch sale: %v", err)
	}
	h.admit(ids[0], bidder)
	h.at(h.ido.SaleEnd - 1)
	price, err := h.node.DutchPrice(ids[0])
	if err != nil {
		t.Fatalf("dutch price: %v", err)
	}
	expectBig(t, "floor price", price, milli(200))
	expectErr(t, func() error {
		_, err := h.node.SaleBidSingle(bidder, ids[0], milli(199))
		return err
	}(), nativecommon.ErrWrongAmount)
}

func TestEscrowingSameUnitTwiceFails(t *testing.T) {
	h := newHarness(t, scenario{single: true, raise: true, adminOwned: true})
	h.raiseSingle(1, milli(100))
	_, err := h.node.SaleCreateRaiseSingle(h.seller, h.projectID, []uint64{1}, []*big.Int{milli(100)})
	expectErr(t, err, nativecommon.ErrTransfer)
	if kind := nativecommon.KindOf(err); kind != nativecommon.KindTransfer {
		t.Fatalf("unexpected kind %q", kind)
	}
	ids, err := h.node.SalesOf(h.projectID)
	if err != nil {
		t.Fatalf("sales of: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("failed listing left %d sales indexed", len(ids))
	}
}

func TestCreateSaleChecks(t *testing.T) {
	h := newHarness(t, scenario{single: true, raise: true, adminOwned: true})

	_, err := h.node.SaleCreateRaiseSingle(bidder, h.projectID, []uint64{1}, []*big.Int{milli(1)})
	expectErr(t, err, nativecommon.ErrUnauthorized)

	_, err = h.node.SaleCreateRaiseSingle(h.seller, h.projectID, []uint64{1}, []*big.Int{big.NewInt(0)})
	expectErr(t, err, nativecommon.ErrInvalidPricing)

	_, err = h.node.SaleCreateRaiseSingle(h.seller, h.projectID, []uint64{1, 2}, []*big.Int{milli(1)})
	expectErr(t, err, nativecommon.ErrInvalidPricing)

	_, err = h.node.SaleCreateDutchSingle(h.seller, h.projectID, []uint64{1},
		[]*big.Int{milli(100)}, []*big.Int{milli(10)}, []*big.Int{milli(1)})
	expectErr(t, err, nativecommon.ErrKindMismatch)

	_, err = h.node.SaleCreateRaiseMulti(h.seller, h.projectID, []uint64{1}, []uint64{1}, []*big.Int{milli(1)})
	expectErr(t, err, nativecommon.ErrKindMismatch)

	h.at(h.ido.JoinEnd)
	_, err = h.node.SaleCreateRaiseSingle(h.seller, h.projectID, []uint64{1}, []*big.Int{milli(1)})
	expectErr(t, err, nativecommon.ErrJoinClosed)
}

func TestDutchRejectsInvertedBounds(t *testing.T) {
	h := newHarness(t, scenario{single: true, raise: false})
	_, err := h.node.SaleCreateDutchSingle(h.seller, h.projectID, []uint64{1},
		[]*big.Int{milli(100)}, []*big.Int{milli(200)}, []*big.Int{milli(1)})
	expectErr(t, err, nativecommon.ErrInvalidPricing)
	_, err = h.node.SaleCreateDutchSingle(h.seller, h.projectID, []uint64{1},
		[]*big.Int{milli(100)}, []*big.Int{milli(10)}, []*big.Int{big.NewInt(0)})
	expectErr(t, err, nativecommon.ErrInvalidPricing)
}

func TestBidRejections(t *testing.T) {
	h := newHarness(t, scenario{single: true, raise: true, adminOwned: true})
	saleID := h.raiseSingle(1, milli(1000))
	h.admit(saleID, bidder, bidder2, pauper)

	bid := func(who common.Address, amount *big.Int) error {
		_, err := h.node.SaleBidSingle(who, saleID, amount)
		return err
	}

	expectErr(t, bid(bidder, milli(1000)), nativecommon.ErrNotYetOpen)

	h.at(h.ido.SaleStart)
	expectErr(t, bid(creator, milli(1000)), nativecommon.ErrNotWinner)
	expectErr(t, bid(bidder, milli(999)), nativecommon.ErrWrongAmount)
	expectErr(t, bid(bidder, milli(1001)), nativecommon.ErrWrongAmount)
	expectErr(t, bid(pauper, milli(1000)), nativecommon.ErrInsufficientFunds)
	_, err := h.node.SaleBidMulti(bidder, saleID, 1, milli(1000))
	expectErr(t, err, nativecommon.ErrKindMismatch)

	if h.status(saleID) != sale.StatusOpen {
		t.Fatalf("rejected bids must leave the sale open")
	}
	if _, err := h.node.Record(saleID); !errors.Is(err, nativecommon.ErrRecordNotFound) {
		t.Fatalf("rejected bids must not create a record, got %v", err)
	}
	if got := len(h.rec.OfType(sale.EventTypeBidSettled)); got != 0 {
		t.Fatalf("rejected bids emitted %d settlement events", got)
	}

	if err := bid(bidder, milli(1000)); err != nil {
		t.Fatalf("bid: %v", err)
	}
	expectErr(t, bid(bidder2, milli(1000)), nativecommon.ErrSaleNotOpen)
}

func TestBidAfterSaleEndExpires(t *testing.T) {
	h := newHarness(t, scenario{single: true, raise: true, adminOwned: true})
	saleID := h.raiseSingle(1, milli(1000))
	h.admit(saleID, bidder)
	h.at(h.ido.SaleEnd)
	_, err := h.node.SaleBidSingle(bidder, saleID, milli(1000))
	expectErr(t, err, nativecommon.ErrExpired)
}

func TestBidRequiresApprovedProject(t *testing.T) {
	h := newHarness(t, scenario{single: true, raise: true})
	saleID := h.raiseSingle(1, milli(1000))
	h.admit(saleID, bidder)
	h.at(h.ido.SaleStart)
	_, err := h.node.SaleBidSingle(bidder, saleID, milli(1000))
	expectErr(t, err, nativecommon.ErrNotApproved)
}

func TestBidMultiRequiresListedQuantity(t *testing.T) {
	h := newHarness(t, scenario{single: false, raise: true, adminOwned: true})
	ids, err := h.node.SaleCreateRaiseMulti(h.seller, h.projectID, []uint64{1}, []uint64{5}, []*big.Int{milli(100)})
	if err != nil {
		t.Fatalf("create multi sale: %v", err)
	}
	saleID := ids[0]
	h.admit(saleID, bidder)
	h.at(h.ido.SaleStart)

	_, err = h.node.SaleBidMulti(bidder, saleID, 4, milli(400))
	expectErr(t, err, nativecommon.ErrInvalidQuantity)
	_, err = h.node.SaleBidSingle(bidder, saleID, milli(500))
	expectErr(t, err, nativecommon.ErrKindMismatch)

	settlement, err := h.node.SaleBidMulti(bidder, saleID, 5, milli(500))
	if err != nil {
		t.Fatalf("bid multi: %v", err)
	}
	expectBig(t, "gross", settlement.Split.Gross, milli(500))
	if got := h.units(custody.VaultAccount, 1); got != 5 {
		t.Fatalf("vault should hold 5 units, holds %d", got)
	}
	rec, err := h.node.Record(saleID)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec.Quantity != 5 {
		t.Fatalf("record quantity %d", rec.Quantity)
	}
}

func TestSetWinnersRules(t *testing.T) {
	h := newHarness(t, scenario{single: true, raise: true, adminOwned: true})
	saleID := h.raiseSingle(1, milli(1000))

	expectErr(t, h.node.SaleSetWinners(h.seller, saleID, []common.Address{bidder}, true), nativecommon.ErrUnauthorized)

	h.admit(saleID, bidder)
	h.admit(saleID, bidder)
	if got := len(h.rec.OfType(sale.EventTypeWinnerSet)); got != 1 {
		t.Fatalf("repeated admission emitted %d events", got)
	}
	if err := h.node.SaleSetWinners(controller, saleID, []common.Address{bidder}, false); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	admitted, err := h.node.IsWinner(saleID, bidder)
	if err != nil {
		t.Fatalf("is winner: %v", err)
	}
	if admitted {
		t.Fatalf("bidder should have been removed")
	}

	h.at(h.ido.SaleEnd)
	expectErr(t, h.node.SaleSetWinners(controller, saleID, []common.Address{bidder}, true), nativecommon.ErrExpired)
}

func TestCloseReturnsUnsoldUnits(t *testing.T) {
	h := newHarness(t, scenario{single: true, raise: true, adminOwned: true})
	sold := h.raiseSingle(1, milli(1000))
	unsold := h.raiseSingle(2, milli(1000))
	h.admit(sold, bidder)

	h.at(h.ido.SaleStart)
	if _, err := h.node.SaleBidSingle(bidder, sold, milli(1000)); err != nil {
		t.Fatalf("bid: %v", err)
	}
	expectErr(t, h.node.SaleClose(h.seller, h.projectID, []uint64{unsold}), nativecommon.ErrSaleNotEnded)

	h.at(h.ido.SaleEnd)
	expectErr(t, h.node.SaleClose(bidder, h.projectID, []uint64{unsold}), nativecommon.ErrUnauthorized)
	expectErr(t, h.node.SaleClose(h.seller, h.projectID, []uint64{unsold, sold}), nativecommon.ErrStillSold)
	if h.status(unsold) != sale.StatusOpen {
		t.Fatalf("a rejected close must not close any sale")
	}
	expectErr(t, h.node.SaleClose(h.seller, h.projectID, []uint64{99}), nativecommon.ErrSaleNotFound)

	if err := h.node.SaleClose(h.seller, h.projectID, []uint64{unsold}); err != nil {
		t.Fatalf("close: %v", err)
	}
	if h.status(unsold) != sale.StatusClosed {
		t.Fatalf("sale should be closed")
	}
	if got := h.units(h.seller, 2); got != 1 {
		t.Fatalf("unsold unit not returned, manager holds %d", got)
	}
	if err := h.node.SaleClose(h.seller, h.projectID, []uint64{unsold}); err != nil {
		t.Fatalf("closing again should be a no-op: %v", err)
	}
	if got := len(h.rec.OfType(sale.EventTypeSaleClosed)); got != 1 {
		t.Fatalf("expected one close event, got %d", got)
	}
}

func TestCloseRejectsForeignSale(t *testing.T) {
	h := newHarness(t, scenario{single: true, raise: true, adminOwned: true})
	h.raiseSingle(1, milli(100))

	otherID, err := h.node.ProjectCreate(adminAddr, h.collection, true, true)
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if err := h.node.ProjectSetManager(adminAddr, otherID, managerAdr); err != nil {
		t.Fatalf("set manager: %v", err)
	}
	if err := h.node.ProjectSetIDO(managerAdr, otherID, h.ido); err != nil {
		t.Fatalf("set ido: %v", err)
	}
	ids, err := h.node.SaleCreateRaiseSingle(managerAdr, otherID, []uint64{3}, []*big.Int{milli(100)})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}

	h.at(h.ido.SaleEnd)
	expectErr(t, h.node.SaleClose(h.seller, h.projectID, ids), nativecommon.ErrSaleProjectMismatch)
}

func TestPausedSaleModuleRejectsBids(t *testing.T) {
	h := &harness{t: t, now: startTime}
	node, err := core.NewNode(storage.NewMemDB(), core.Config{
		SuperAdmin: superAdmin,
		Pauses:     map[string]bool{nativecommon.ModuleSale: true},
	}, core.WithTimeSource(func() int64 { return h.now }))
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	_, err = node.SaleBidSingle(bidder, 1, milli(1))
	expectErr(t, err, nativecommon.ErrModulePaused)
}
