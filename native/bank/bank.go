package bank

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"launchpad/core/events"
	nativecommon "launchpad/native/common"
)

var (
	errNilState       = errors.New("bank: state not configured")
	errNegativeAmount = errors.New("bank: amount must not be negative")
)

type ledgerState interface {
	nativecommon.Snapshotter
	Balance(addr common.Address) (*big.Int, error)
	SetBalance(addr common.Address, amount *big.Int) error
}

// Ledger moves native coin between accounts. It backs the attached value of
// bids and every settlement payout.
type Ledger struct {
	state   ledgerState
	emitter events.Emitter
}

func NewLedger(state ledgerState) *Ledger {
	return &Ledger{state: state, emitter: events.NoopEmitter{}}
}

// SetEmitter configures the event emitter used to broadcast transfers. Passing
// nil resets the emitter to a no-op implementation.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

func (l *Ledger) Balance(addr common.Address) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	return l.state.Balance(addr)
}

// Credit mints amount into addr. Used for genesis allocations.
func (l *Ledger) Credit(addr common.Address, amount *big.Int) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return errNegativeAmount
	}
	current, err := l.state.Balance(addr)
	if err != nil {
		return err
	}
	if err := l.state.SetBalance(addr, new(big.Int).Add(current, amount)); err != nil {
		return err
	}
	l.emitter.Emit(events.Transfer{To: addr, Amount: new(big.Int).Set(amount), Reason: "genesis"})
	return nil
}

// Transfer moves amount from one account to another. Zero amounts are a no-op.
func (l *Ledger) Transfer(from, to common.Address, amount *big.Int, reason string) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return errNegativeAmount
	}
	return nativecommon.Atomic(l.state, func() error {
		fromBal, err := l.state.Balance(from)
		if err != nil {
			return err
		}
		if fromBal.Cmp(amount) < 0 {
			return fmt.Errorf("%w: %s holds %s, needs %s", nativecommon.ErrInsufficientFunds, from.Hex(), fromBal, amount)
		}
		if err := l.state.SetBalance(from, new(big.Int).Sub(fromBal, amount)); err != nil {
			return err
		}
		toBal, err := l.state.Balance(to)
		if err != nil {
			return err
		}
		if err := l.state.SetBalance(to, new(big.Int).Add(toBal, amount)); err != nil {
			return err
		}
		l.emitter.Emit(events.Transfer{From: from, To: to, Amount: new(big.Int).Set(amount), Reason: reason})
		return nil
	})
}
