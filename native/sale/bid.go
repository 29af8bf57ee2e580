package sale

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	nativecommon "launchpad/native/common"
	"launchpad/native/custody"
)

// Settlement reports the outcome of a settled bid.
type Settlement struct {
	SaleID   uint64
	RecordID uint64
	Payer    common.Address
	Split    Split
}

// BidSingle settles a single-unit sale for an admitted winner.
func (e *Engine) BidSingle(caller common.Address, saleID uint64, payment *big.Int) (*Settlement, error) {
	return e.bid(caller, saleID, 1, payment, true)
}

// BidMulti settles a multi-kind sale. quantity must equal the listed
// quantity.
func (e *Engine) BidMulti(caller common.Address, saleID, quantity uint64, payment *big.Int) (*Settlement, error) {
	return e.bid(caller, saleID, quantity, payment, false)
}

func (e *Engine) bid(caller common.Address, saleID, quantity uint64, payment *big.Int, single bool) (*Settlement, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := nativecommon.Guard(e.pauses, nativecommon.ModuleSale); err != nil {
		return nil, err
	}
	if e.treasury == (common.Address{}) {
		return nil, errNilTreasury
	}
	if payment == nil || payment.Sign() < 0 {
		return nil, fmt.Errorf("%w: payment must not be negative", nativecommon.ErrWrongAmount)
	}
	var result *Settlement
	err := nativecommon.Atomic(e.state, func() error {
		s, err := e.Sale(saleID)
		if err != nil {
			return err
		}
		if s.Status != StatusOpen {
			return fmt.Errorf("%w: sale %d is %s", nativecommon.ErrSaleNotOpen, saleID, s.Status)
		}
		p, err := e.projects.Project(s.ProjectID)
		if err != nil {
			return err
		}
		if p.IsSingle != single {
			return fmt.Errorf("%w: project %d single=%t", nativecommon.ErrKindMismatch, p.ID, p.IsSingle)
		}
		if quantity != s.Quantity {
			return fmt.Errorf("%w: listed %d, requested %d", nativecommon.ErrInvalidQuantity, s.Quantity, quantity)
		}
		admitted, err := e.IsWinner(saleID, caller)
		if err != nil {
			return err
		}
		if !admitted {
			return fmt.Errorf("%w: sale %d", nativecommon.ErrNotWinner, saleID)
		}
		if !p.IDO.IsSet() {
			return fmt.Errorf("%w: project %d", nativecommon.ErrWindowNotSet, p.ID)
		}
		now := e.now()
		if now < p.IDO.SaleStart {
			return fmt.Errorf("%w: sale opens at %d", nativecommon.ErrNotYetOpen, p.IDO.SaleStart)
		}
		if now >= p.IDO.SaleEnd {
			return fmt.Errorf("%w: sale ended at %d", nativecommon.ErrExpired, p.IDO.SaleEnd)
		}
		if !p.CreatedByAdmin && !p.Approval.Approved {
			return fmt.Errorf("%w: project %d", nativecommon.ErrNotApproved, p.ID)
		}

		gross, residual, err := quote(s, p.IDO.SaleStart, now, payment)
		if err != nil {
			return err
		}
		info, err := e.royalties.Info(s.Collection, s.AssetID, gross)
		if err != nil {
			return err
		}
		split, err := ComputeSplit(gross, residual, info.Amount, p.CreatedByAdmin, p.Approval.Percent)
		if err != nil {
			return err
		}
		seller, _ := p.EffectiveManager()
		if split.Seller.Sign() > 0 && seller == (common.Address{}) {
			return fmt.Errorf("%w: project %d", nativecommon.ErrManagerNotSet, p.ID)
		}

		// Collect payment and flip every guard before custody or funds leave
		// the module.
		if err := e.bank.Transfer(caller, custody.PaymentsAccount, payment, "sale.bid"); err != nil {
			return err
		}
		s.Status = StatusSold
		s.Buyer = caller
		if err := e.storeSale(s); err != nil {
			return err
		}
		recordID, err := e.records.CreateRecord(s.ID, s.ProjectID, caller, s.Collection, s.AssetID, s.Quantity)
		if err != nil {
			return err
		}

		adapter, err := e.adapters.For(s.Collection)
		if err != nil {
			return err
		}
		if err := adapter.TransferUnit(custody.EscrowAccount, custody.EscrowAccount, custody.VaultAccount, s.AssetID, s.Quantity); err != nil {
			return fmt.Errorf("%w: vault asset %d: %w", nativecommon.ErrTransfer, s.AssetID, err)
		}
		if err := e.bank.Transfer(custody.PaymentsAccount, e.treasury, split.Platform, "sale.platform"); err != nil {
			return err
		}
		if err := e.bank.Transfer(custody.PaymentsAccount, seller, split.Seller, "sale.seller"); err != nil {
			return err
		}
		if split.Royalty.Sign() > 0 {
			if err := e.bank.Transfer(custody.PaymentsAccount, info.Receiver, split.Royalty, "sale.royalty"); err != nil {
				return err
			}
		}

		e.emit(NewBidSettledEvent(saleID, caller, split))
		result = &Settlement{SaleID: saleID, RecordID: recordID, Payer: caller, Split: split}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// quote returns the gross price of the sale at now and the residual of
// payment above it. Raise sales accept only the exact price.
func quote(s *Sale, saleStart, now uint64, payment *big.Int) (gross, residual *big.Int, err error) {
	switch s.Mechanism {
	case MechanismRaise:
		gross, err = total(s.Price, s.Quantity)
		if err != nil {
			return nil, nil, err
		}
		if payment.Cmp(gross) != 0 {
			return nil, nil, fmt.Errorf("%w: expected %s, got %s", nativecommon.ErrWrongAmount, gross, payment)
		}
		return gross, new(big.Int), nil
	case MechanismDutch:
		unit, err := DutchPrice(s.MaxPrice, s.MinPrice, s.Decrement, saleStart, now)
		if err != nil {
			return nil, nil, err
		}
		gross, err = total(unit, s.Quantity)
		if err != nil {
			return nil, nil, err
		}
		if payment.Cmp(gross) < 0 {
			return nil, nil, fmt.Errorf("%w: quoted %s, got %s", nativecommon.ErrWrongAmount, gross, payment)
		}
		return gross, new(big.Int).Sub(payment, gross), nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown mechanism %d", nativecommon.ErrInvalidPricing, s.Mechanism)
	}
}
