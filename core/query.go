package core

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"launchpad/native/assets"
	"launchpad/native/distribution"
	"launchpad/native/project"
	"launchpad/native/royalty"
	"launchpad/native/sale"
)

// Roles summarises the platform roles held by an address.
type Roles struct {
	SuperAdmin bool
	Admin      bool
	Controller bool
}

func (n *Node) RolesOf(addr common.Address) Roles {
	var out Roles
	_ = n.query(func() error {
		out = Roles{
			SuperAdmin: n.access.IsSuperAdmin(addr),
			Admin:      n.access.IsAdmin(addr),
			Controller: n.access.IsController(addr),
		}
		return nil
	})
	return out
}

func (n *Node) Balance(addr common.Address) (*big.Int, error) {
	var out *big.Int
	err := n.query(func() error {
		var err error
		out, err = n.bank.Balance(addr)
		return err
	})
	return out, err
}

func (n *Node) Collection(addr common.Address) (*assets.Collection, error) {
	var out *assets.Collection
	err := n.query(func() error {
		var err error
		out, err = n.assets.Collection(addr)
		return err
	})
	return out, err
}

// Collections lists deployed collections in deployment order.
func (n *Node) Collections() ([]common.Address, error) {
	var out []common.Address
	err := n.query(func() error {
		var err error
		out, err = n.assets.Collections()
		return err
	})
	return out, err
}

func (n *Node) AssetBalance(collection, holder common.Address, assetID uint64) (uint64, error) {
	var out uint64
	err := n.query(func() error {
		var err error
		out, err = n.assets.BalanceOf(collection, holder, assetID)
		return err
	})
	return out, err
}

func (n *Node) Project(id uint64) (*project.Project, error) {
	var out *project.Project
	err := n.query(func() error {
		var err error
		out, err = n.projects.Project(id)
		return err
	})
	return out, err
}

func (n *Node) LastProjectID() (uint64, error) {
	var out uint64
	err := n.query(func() error {
		var err error
		out, err = n.projects.LastProjectID()
		return err
	})
	return out, err
}

func (n *Node) Sale(id uint64) (*sale.Sale, error) {
	var out *sale.Sale
	err := n.query(func() error {
		var err error
		out, err = n.sales.Sale(id)
		return err
	})
	return out, err
}

func (n *Node) LastSaleID() (uint64, error) {
	var out uint64
	err := n.query(func() error {
		var err error
		out, err = n.sales.LastSaleID()
		return err
	})
	return out, err
}

func (n *Node) SalesOf(projectID uint64) ([]uint64, error) {
	var out []uint64
	err := n.query(func() error {
		var err error
		out, err = n.sales.SalesOf(projectID)
		return err
	})
	return out, err
}

func (n *Node) IsWinner(saleID uint64, addr common.Address) (bool, error) {
	var out bool
	err := n.query(func() error {
		var err error
		out, err = n.sales.IsWinner(saleID, addr)
		return err
	})
	return out, err
}

// DutchPrice returns the unit price a dutch sale would settle at now.
func (n *Node) DutchPrice(saleID uint64) (*big.Int, error) {
	var out *big.Int
	err := n.query(func() error {
		var err error
		out, err = n.sales.CurrentDutchPrice(saleID)
		return err
	})
	return out, err
}

// RoyaltyInfo returns the capped royalty owed on gross for an asset of a
// project.
func (n *Node) RoyaltyInfo(projectID, assetID uint64, gross *big.Int) (royalty.Info, error) {
	var out royalty.Info
	err := n.query(func() error {
		var err error
		out, err = n.royalties.GetRoyaltyInfo(projectID, assetID, gross)
		return err
	})
	return out, err
}

func (n *Node) Record(saleID uint64) (*distribution.Record, error) {
	var out *distribution.Record
	err := n.query(func() error {
		var err error
		out, err = n.vault.Record(saleID)
		return err
	})
	return out, err
}

// Treasury returns the platform treasury receiving platform shares.
func (n *Node) Treasury() common.Address { return n.sales.Treasury() }
