package core

import (
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"launchpad/core/events"
	nhbstate "launchpad/core/state"
	"launchpad/native/access"
	"launchpad/native/assets"
	"launchpad/native/bank"
	nativecommon "launchpad/native/common"
	"launchpad/native/custody"
	"launchpad/native/distribution"
	"launchpad/native/project"
	"launchpad/native/royalty"
	"launchpad/native/sale"
	"launchpad/observability"
	"launchpad/storage"
)

const genesisMarker = "launchpad/genesis"

// Config carries the platform parameters the node is wired with.
type Config struct {
	SuperAdmin    common.Address
	Treasury      common.Address
	Admins        []common.Address
	Controllers   []common.Address
	RoyaltyCapBps *uint64 // nil selects royalty.DefaultCapBps
	Pauses        map[string]bool
	Balances      map[common.Address]*big.Int
}

// Node is the central controller, wiring all launchpad engines together. It
// applies operations one at a time: each runs against a fresh snapshot and is
// either committed to the database in one batch or discarded entirely.
type Node struct {
	db     storage.Database
	state  *nhbstate.Manager
	clock  *Clock
	logger *slog.Logger

	stateMu sync.Mutex
	opTime  int64

	subMu       sync.RWMutex
	subscribers []events.Emitter

	access    *access.Engine
	bank      *bank.Ledger
	assets    *assets.Engine
	router    *custody.Router
	royalties *royalty.Oracle
	projects  *project.Engine
	sales     *sale.Engine
	vault     *distribution.Vault
}

// Option customises a Node at construction.
type Option func(*Node)

// WithTimeSource sets the unix-seconds source the node's clock reads from.
func WithTimeSource(source func() int64) Option {
	return func(n *Node) { n.clock.SetSource(source) }
}

// WithLogger sets the logger used for operation outcomes.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Node) { n.SetLogger(logger) }
}

// NewNode wires the engines over db and applies cfg's genesis allocations the
// first time db is used.
func NewNode(db storage.Database, cfg Config, opts ...Option) (*Node, error) {
	if db == nil {
		return nil, errors.New("core: database required")
	}
	if cfg.SuperAdmin == (common.Address{}) {
		return nil, errors.New("core: super admin required")
	}
	if cfg.Treasury == (common.Address{}) {
		cfg.Treasury = cfg.SuperAdmin
	}

	n := &Node{
		db:     db,
		state:  nhbstate.NewManager(db),
		clock:  NewClock(nil),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}
	pauses := nativecommon.Pauses(cfg.Pauses)

	n.access = access.NewEngine()
	n.access.SetState(n.state)

	n.bank = bank.NewLedger(n.state)

	n.assets = assets.NewEngine()
	n.assets.SetState(n.state)

	n.router = custody.NewRouter(n.assets)

	n.projects = project.NewEngine()
	n.projects.SetState(n.state)
	n.projects.SetAccess(n.access)
	n.projects.SetAssets(n.router)
	n.projects.SetPauses(pauses)

	n.royalties = royalty.NewOracle(n.router)
	n.royalties.SetProjects(n.projects)
	if cfg.RoyaltyCapBps != nil {
		if err := n.royalties.SetCap(*cfg.RoyaltyCapBps); err != nil {
			return nil, err
		}
	}

	n.vault = distribution.NewVault()
	n.vault.SetState(n.state)
	n.vault.SetProjects(n.projects)
	n.vault.SetAdapters(n.router)
	n.vault.SetPauses(pauses)

	n.sales = sale.NewEngine()
	n.sales.SetState(n.state)
	n.sales.SetProjects(n.projects)
	n.sales.SetAccess(n.access)
	n.sales.SetAdapters(n.router)
	n.sales.SetRoyalties(n.royalties)
	n.sales.SetPayments(n.bank)
	n.sales.SetRecords(n.vault)
	n.sales.SetTreasury(cfg.Treasury)
	n.sales.SetPauses(pauses)

	n.vault.SetSales(n.sales)

	// Every engine reads the timestamp pinned at the start of the operation
	// and buffers events in the journaled state.
	n.access.SetNowFunc(n.now)
	n.assets.SetNowFunc(n.now)
	n.projects.SetNowFunc(n.now)
	n.sales.SetNowFunc(n.now)
	n.vault.SetNowFunc(n.now)
	n.access.SetEmitter(n.state)
	n.bank.SetEmitter(n.state)
	n.assets.SetEmitter(n.state)
	n.projects.SetEmitter(n.state)
	n.sales.SetEmitter(n.state)
	n.vault.SetEmitter(n.state)

	if err := n.applyGenesis(cfg); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *Node) applyGenesis(cfg Config) error {
	return n.execute("genesis", cfg.SuperAdmin, func() error {
		var done bool
		ok, err := n.state.KVGet([]byte(genesisMarker), &done)
		if err != nil {
			return err
		}
		if ok && done {
			current, err := n.access.SuperAdmin()
			if err != nil {
				return err
			}
			if current != cfg.SuperAdmin {
				return fmt.Errorf("core: data directory belongs to super admin %s", current.Hex())
			}
			return nil
		}
		if err := n.access.Bootstrap(cfg.SuperAdmin); err != nil {
			return err
		}
		if err := n.access.SetAdmins(cfg.SuperAdmin, cfg.Admins, true); err != nil {
			return err
		}
		if err := n.access.SetControllers(cfg.SuperAdmin, cfg.Controllers, true); err != nil {
			return err
		}
		addrs := make([]common.Address, 0, len(cfg.Balances))
		for addr := range cfg.Balances {
			addrs = append(addrs, addr)
		}
		sort.Slice(addrs, func(i, j int) bool { return addrs[i].Hex() < addrs[j].Hex() })
		for _, addr := range addrs {
			if err := n.bank.Credit(addr, cfg.Balances[addr]); err != nil {
				return err
			}
		}
		return n.state.KVPut([]byte(genesisMarker), true)
	})
}

// SetLogger replaces the logger used for operation outcomes.
func (n *Node) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	n.logger = logger
}

// SetTimeSource replaces the clock source. Timestamps stay monotonic across
// the switch.
func (n *Node) SetTimeSource(source func() int64) { n.clock.SetSource(source) }

// Subscribe registers an emitter that receives every committed event.
func (n *Node) Subscribe(emitter events.Emitter) {
	if emitter == nil {
		return
	}
	n.subMu.Lock()
	n.subscribers = append(n.subscribers, emitter)
	n.subMu.Unlock()
}

func (n *Node) now() int64 { return n.opTime }

// execute applies fn atomically. Writes are committed in one batch and the
// buffered events published only when fn succeeds.
func (n *Node) execute(op string, caller common.Address, fn func() error) error {
	n.stateMu.Lock()
	n.opTime = n.clock.Now()
	err := fn()
	var committed []events.Event
	if err != nil {
		n.state.Discard()
	} else {
		committed, err = n.state.Commit()
		if err != nil {
			n.state.Discard()
		}
	}
	n.stateMu.Unlock()

	observability.Operations().Observe(op, string(nativecommon.KindOf(err)))
	if err != nil {
		n.logger.Warn("operation reverted",
			slog.String("op", op),
			slog.String("caller", caller.Hex()),
			slog.String("kind", string(nativecommon.KindOf(err))),
			slog.String("error", err.Error()))
		return err
	}
	n.logger.Debug("operation applied",
		slog.String("op", op),
		slog.String("caller", caller.Hex()),
		slog.Int("events", len(committed)))
	n.publish(committed)
	return nil
}

// query runs a read under the state lock.
func (n *Node) query(fn func() error) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	n.opTime = n.clock.Now()
	return fn()
}

func (n *Node) publish(committed []events.Event) {
	n.subMu.RLock()
	subs := append([]events.Emitter(nil), n.subscribers...)
	n.subMu.RUnlock()
	fan := events.Fanout(subs)
	for _, evt := range committed {
		fan.Emit(evt)
	}
}

// Close releases the underlying database.
func (n *Node) Close() {
	if n.db != nil {
		n.db.Close()
	}
}
