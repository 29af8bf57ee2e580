package rpc

import (
	"launchpad/core"
	"launchpad/native/assets"
	"launchpad/native/distribution"
	"launchpad/native/project"
	"launchpad/native/royalty"
	"launchpad/native/sale"
)

type idoJSON struct {
	JoinStart         uint64 `json:"joinStart"`
	JoinEnd           uint64 `json:"joinEnd"`
	SaleStart         uint64 `json:"saleStart"`
	SaleEnd           uint64 `json:"saleEnd"`
	DistributionStart uint64 `json:"distributionStart"`
}

type approvalJSON struct {
	Requested bool   `json:"requested"`
	Percent   uint64 `json:"percent"`
	Approved  bool   `json:"approved"`
}

type projectJSON struct {
	ID             uint64       `json:"id"`
	Owner          string       `json:"owner"`
	Collection     string       `json:"collection"`
	IsSingle       bool         `json:"isSingle"`
	IsRaise        bool         `json:"isRaise"`
	Manager        string       `json:"manager,omitempty"`
	CreatedByAdmin bool         `json:"createdByAdmin"`
	IDO            *idoJSON     `json:"ido,omitempty"`
	Ended          bool         `json:"ended"`
	Approval       approvalJSON `json:"approval"`
}

func formatProject(p *project.Project) projectJSON {
	out := projectJSON{
		ID:             p.ID,
		Owner:          p.Owner.Hex(),
		Collection:     p.Collection.Hex(),
		IsSingle:       p.IsSingle,
		IsRaise:        p.IsRaise,
		CreatedByAdmin: p.CreatedByAdmin,
		Ended:          p.Ended,
		Approval: approvalJSON{
			Requested: p.Approval.Requested,
			Percent:   p.Approval.Percent,
			Approved:  p.Approval.Approved,
		},
	}
	if manager, ok := p.EffectiveManager(); ok {
		out.Manager = manager.Hex()
	}
	if p.IDO.IsSet() {
		out.IDO = &idoJSON{
			JoinStart:         p.IDO.JoinStart,
			JoinEnd:           p.IDO.JoinEnd,
			SaleStart:         p.IDO.SaleStart,
			SaleEnd:           p.IDO.SaleEnd,
			DistributionStart: p.IDO.DistributionStart,
		}
	}
	return out
}

type saleJSON struct {
	ID         uint64 `json:"id"`
	ProjectID  uint64 `json:"projectId"`
	Collection string `json:"collection"`
	AssetID    uint64 `json:"assetId"`
	Quantity   uint64 `json:"quantity"`
	Mechanism  string `json:"mechanism"`
	Price      string `json:"price,omitempty"`
	MaxPrice   string `json:"maxPrice,omitempty"`
	MinPrice   string `json:"minPrice,omitempty"`
	Decrement  string `json:"decrement,omitempty"`
	Status     string `json:"status"`
	Buyer      string `json:"buyer,omitempty"`
}

func formatSale(s *sale.Sale) saleJSON {
	out := saleJSON{
		ID:         s.ID,
		ProjectID:  s.ProjectID,
		Collection: s.Collection.Hex(),
		AssetID:    s.AssetID,
		Quantity:   s.Quantity,
		Mechanism:  s.Mechanism.String(),
		Status:     s.Status.String(),
		Buyer:      optionalAddress(s.Buyer),
	}
	if s.Mechanism == sale.MechanismRaise {
		out.Price = amountString(s.Price)
	} else {
		out.MaxPrice = amountString(s.MaxPrice)
		out.MinPrice = amountString(s.MinPrice)
		out.Decrement = amountString(s.Decrement)
	}
	return out
}

type settlementJSON struct {
	SaleID   uint64 `json:"saleId"`
	RecordID uint64 `json:"recordId"`
	Payer    string `json:"payer"`
	Gross    string `json:"gross"`
	Residual string `json:"residual"`
	Platform string `json:"platformShare"`
	Seller   string `json:"sellerShare"`
	Royalty  string `json:"royaltyShare"`
}

func formatSettlement(s *sale.Settlement) settlementJSON {
	return settlementJSON{
		SaleID:   s.SaleID,
		RecordID: s.RecordID,
		Payer:    s.Payer.Hex(),
		Gross:    amountString(s.Split.Gross),
		Residual: amountString(s.Split.Residual),
		Platform: amountString(s.Split.Platform),
		Seller:   amountString(s.Split.Seller),
		Royalty:  amountString(s.Split.Royalty),
	}
}

type recordJSON struct {
	ID         uint64 `json:"id"`
	SaleID     uint64 `json:"saleId"`
	ProjectID  uint64 `json:"projectId"`
	Recipient  string `json:"recipient"`
	Collection string `json:"collection"`
	AssetID    uint64 `json:"assetId"`
	Quantity   uint64 `json:"quantity"`
	Claimed    bool   `json:"claimed"`
}

func formatRecord(r *distribution.Record) recordJSON {
	return recordJSON{
		ID:         r.ID,
		SaleID:     r.SaleID,
		ProjectID:  r.ProjectID,
		Recipient:  r.Recipient.Hex(),
		Collection: r.Collection.Hex(),
		AssetID:    r.AssetID,
		Quantity:   r.Quantity,
		Claimed:    r.Claimed,
	}
}

type collectionJSON struct {
	Address         string   `json:"address"`
	Owner           string   `json:"owner"`
	Name            string   `json:"name"`
	Symbol          string   `json:"symbol"`
	IsSingle        bool     `json:"isSingle"`
	RoyaltyReceiver string   `json:"royaltyReceiver,omitempty"`
	RoyaltyBps      uint64   `json:"royaltyBps"`
	LastAssetID     uint64   `json:"lastAssetId"`
	Controllers     []string `json:"controllers,omitempty"`
}

func formatCollection(c *assets.Collection) collectionJSON {
	out := collectionJSON{
		Address:         c.Address.Hex(),
		Owner:           c.Owner.Hex(),
		Name:            c.Name,
		Symbol:          c.Symbol,
		IsSingle:        c.IsSingle,
		RoyaltyReceiver: optionalAddress(c.RoyaltyReceiver),
		RoyaltyBps:      c.RoyaltyBps,
		LastAssetID:     c.LastAssetID,
	}
	for _, ctrl := range c.Controllers {
		out.Controllers = append(out.Controllers, ctrl.Hex())
	}
	return out
}

type royaltyJSON struct {
	Supported bool   `json:"supported"`
	Receiver  string `json:"receiver,omitempty"`
	RateBps   uint64 `json:"rateBps"`
	Amount    string `json:"amount"`
}

func formatRoyalty(info royalty.Info) royaltyJSON {
	return royaltyJSON{
		Supported: info.Supported,
		Receiver:  optionalAddress(info.Receiver),
		RateBps:   info.RateBps,
		Amount:    amountString(info.Amount),
	}
}

type rolesJSON struct {
	Address    string `json:"address"`
	SuperAdmin bool   `json:"superAdmin"`
	Admin      bool   `json:"admin"`
	Controller bool   `json:"controller"`
}

func formatRoles(addr string, r core.Roles) rolesJSON {
	return rolesJSON{Address: addr, SuperAdmin: r.SuperAdmin, Admin: r.Admin, Controller: r.Controller}
}
