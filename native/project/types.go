package project

import "github.com/ethereum/go-ethereum/common"

const (
	// PercentScale is the fixed-point scale of one percent.
	PercentScale uint64 = 1_000_000
	// MaxPercent represents 100%.
	MaxPercent = 100 * PercentScale
)

// IDO holds the time windows of a project, as unix seconds. A zero JoinStart
// means the windows have not been configured.
type IDO struct {
	JoinStart         uint64
	JoinEnd           uint64
	SaleStart         uint64
	SaleEnd           uint64
	DistributionStart uint64
}

// IsSet reports whether the windows have been configured.
func (w IDO) IsSet() bool { return w.JoinStart != 0 }

// Validate checks joinStart < joinEnd ≤ saleStart < saleEnd ≤ distributionStart.
func (w IDO) Validate() bool {
	return w.JoinStart < w.JoinEnd &&
		w.JoinEnd <= w.SaleStart &&
		w.SaleStart < w.SaleEnd &&
		w.SaleEnd <= w.DistributionStart
}

// Approval is the platform fee agreement of an owner-created project.
type Approval struct {
	Requested bool
	Percent   uint64
	Approved  bool
}

// Pending reports whether a request awaits an admin decision.
func (a Approval) Pending() bool { return a.Requested && !a.Approved }

// Project is the registry record. The approval sub-record is persisted under
// its own key.
type Project struct {
	ID             uint64
	Owner          common.Address
	Collection     common.Address
	IsSingle       bool
	IsRaise        bool
	Manager        common.Address
	ManagerSet     bool
	CreatedByAdmin bool
	IDO            IDO
	Ended          bool
	Approval       Approval `rlp:"-"`
}

// EffectiveManager returns the address holding manager capability. Owner
// projects fall back to the owner until a manager is assigned.
func (p *Project) EffectiveManager() (common.Address, bool) {
	if p == nil {
		return common.Address{}, false
	}
	if p.ManagerSet {
		return p.Manager, true
	}
	if !p.CreatedByAdmin {
		return p.Owner, true
	}
	return common.Address{}, false
}
