package core

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"launchpad/native/project"
	"launchpad/native/sale"
)

// AccessSetAdmins grants or revokes the admin role.
func (n *Node) AccessSetAdmins(caller common.Address, addrs []common.Address, enabled bool) error {
	return n.execute("access_setAdmins", caller, func() error {
		return n.access.SetAdmins(caller, addrs, enabled)
	})
}

// AccessSetControllers grants or revokes the controller role.
func (n *Node) AccessSetControllers(caller common.Address, addrs []common.Address, enabled bool) error {
	return n.execute("access_setControllers", caller, func() error {
		return n.access.SetControllers(caller, addrs, enabled)
	})
}

// BankTransfer moves native coin between two accounts.
func (n *Node) BankTransfer(caller, to common.Address, amount *big.Int) error {
	return n.execute("bank_transfer", caller, func() error {
		return n.bank.Transfer(caller, to, amount, "transfer")
	})
}

func (n *Node) AssetsDeploy(caller common.Address, name, symbol string, isSingle bool, royaltyReceiver common.Address, royaltyBps uint64) (common.Address, error) {
	var addr common.Address
	err := n.execute("assets_deploy", caller, func() error {
		var err error
		addr, err = n.assets.Deploy(caller, name, symbol, isSingle, royaltyReceiver, royaltyBps)
		return err
	})
	return addr, err
}

func (n *Node) AssetsSetControllers(caller, collection common.Address, addrs []common.Address, enabled bool) error {
	return n.execute("assets_setControllers", caller, func() error {
		return n.assets.SetControllers(caller, collection, addrs, enabled)
	})
}

func (n *Node) AssetsMint(caller, collection, to common.Address, quantities []uint64) ([]uint64, error) {
	var ids []uint64
	err := n.execute("assets_mint", caller, func() error {
		var err error
		ids, err = n.assets.MintBatch(caller, collection, to, quantities)
		return err
	})
	return ids, err
}

func (n *Node) AssetsSetApprovalForAll(caller, collection, operator common.Address, approved bool) error {
	return n.execute("assets_setApprovalForAll", caller, func() error {
		return n.assets.SetApprovalForAll(caller, collection, operator, approved)
	})
}

func (n *Node) AssetsTransfer(caller, collection, to common.Address, assetID, qty uint64) error {
	return n.execute("assets_transfer", caller, func() error {
		return n.assets.Transfer(caller, collection, caller, to, assetID, qty)
	})
}

// ProjectCreate registers a project over collection and returns its id.
func (n *Node) ProjectCreate(caller, collection common.Address, isSingle, isRaise bool) (uint64, error) {
	var id uint64
	err := n.execute("project_create", caller, func() error {
		var err error
		id, err = n.projects.CreateProject(caller, collection, isSingle, isRaise)
		return err
	})
	return id, err
}

func (n *Node) ProjectSetManager(caller common.Address, id uint64, manager common.Address) error {
	return n.execute("project_setManager", caller, func() error {
		return n.projects.SetManager(caller, id, manager)
	})
}

func (n *Node) ProjectSetIDO(caller common.Address, id uint64, window project.IDO) error {
	return n.execute("project_setIDO", caller, func() error {
		return n.projects.SetIDO(caller, id, window)
	})
}

func (n *Node) ProjectRequestApproval(caller common.Address, id uint64, percent uint64) error {
	return n.execute("project_requestApproval", caller, func() error {
		return n.projects.RequestApproval(caller, id, percent)
	})
}

func (n *Node) ProjectApprove(caller common.Address, id uint64) error {
	return n.execute("project_approve", caller, func() error {
		return n.projects.Approve(caller, id)
	})
}

func (n *Node) ProjectEnd(caller common.Address, id uint64) error {
	return n.execute("project_end", caller, func() error {
		return n.projects.End(caller, id)
	})
}

func (n *Node) SaleCreateRaiseSingle(caller common.Address, projectID uint64, assetIDs []uint64, prices []*big.Int) ([]uint64, error) {
	return n.createSales("sale_createRaiseSingle", caller, func() ([]uint64, error) {
		return n.sales.CreateRaiseSingle(caller, projectID, assetIDs, prices)
	})
}

func (n *Node) SaleCreateRaiseMulti(caller common.Address, projectID uint64, assetIDs, quantities []uint64, prices []*big.Int) ([]uint64, error) {
	return n.createSales("sale_createRaiseMulti", caller, func() ([]uint64, error) {
		return n.sales.CreateRaiseMulti(caller, projectID, assetIDs, quantities, prices)
	})
}

func (n *Node) SaleCreateDutchSingle(caller common.Address, projectID uint64, assetIDs []uint64, maxPrices, minPrices, decrements []*big.Int) ([]uint64, error) {
	return n.createSales("sale_createDutchSingle", caller, func() ([]uint64, error) {
		return n.sales.CreateDutchSingle(caller, projectID, assetIDs, maxPrices, minPrices, decrements)
	})
}

func (n *Node) SaleCreateDutchMulti(caller common.Address, projectID uint64, assetIDs, quantities []uint64, maxPrices, minPrices, decrements []*big.Int) ([]uint64, error) {
	return n.createSales("sale_createDutchMulti", caller, func() ([]uint64, error) {
		return n.sales.CreateDutchMulti(caller, projectID, assetIDs, quantities, maxPrices, minPrices, decrements)
	})
}

func (n *Node) createSales(op string, caller common.Address, fn func() ([]uint64, error)) ([]uint64, error) {
	var ids []uint64
	err := n.execute(op, caller, func() error {
		var err error
		ids, err = fn()
		return err
	})
	return ids, err
}

// SaleSetWinners admits or removes bidders on an open sale.
func (n *Node) SaleSetWinners(caller common.Address, saleID uint64, addrs []common.Address, isWinner bool) error {
	return n.execute("sale_setWinners", caller, func() error {
		return n.sales.SetWinners(caller, saleID, addrs, isWinner)
	})
}

func (n *Node) SaleBidSingle(caller common.Address, saleID uint64, payment *big.Int) (*sale.Settlement, error) {
	var out *sale.Settlement
	err := n.execute("sale_bidSingle", caller, func() error {
		var err error
		out, err = n.sales.BidSingle(caller, saleID, payment)
		return err
	})
	return out, err
}

func (n *Node) SaleBidMulti(caller common.Address, saleID, quantity uint64, payment *big.Int) (*sale.Settlement, error) {
	var out *sale.Settlement
	err := n.execute("sale_bidMulti", caller, func() error {
		var err error
		out, err = n.sales.BidMulti(caller, saleID, quantity, payment)
		return err
	})
	return out, err
}

// SaleClose returns unsold units of the listed sales to the project manager.
func (n *Node) SaleClose(caller common.Address, projectID uint64, saleIDs []uint64) error {
	return n.execute("sale_close", caller, func() error {
		return n.sales.Close(caller, projectID, saleIDs)
	})
}

// DistributionClaim releases a settled sale's units to its recipient.
func (n *Node) DistributionClaim(caller common.Address, saleID uint64) error {
	return n.execute("distribution_claim", caller, func() error {
		return n.vault.Claim(caller, saleID)
	})
}
