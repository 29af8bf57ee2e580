package rpc

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"launchpad/native/project"
)

type handlerFunc func(s *Server, req *RPCRequest) (interface{}, error)

type method struct {
	// mutates marks methods that change state and therefore require the
	// bearer token.
	mutates bool
	handle  handlerFunc
}

var methods = map[string]method{
	"launchpad_setAdmins":                {true, (*Server).handleSetAdmins},
	"launchpad_setControllers":           {true, (*Server).handleSetControllers},
	"launchpad_transfer":                 {true, (*Server).handleTransfer},
	"launchpad_deployCollection":         {true, (*Server).handleDeployCollection},
	"launchpad_setCollectionControllers": {true, (*Server).handleSetCollectionControllers},
	"launchpad_mint":                     {true, (*Server).handleMint},
	"launchpad_setApprovalForAll":        {true, (*Server).handleSetApprovalForAll},
	"launchpad_transferAsset":            {true, (*Server).handleTransferAsset},
	"launchpad_createProject":            {true, (*Server).handleCreateProject},
	"launchpad_setManager":               {true, (*Server).handleSetManager},
	"launchpad_setIDO":                   {true, (*Server).handleSetIDO},
	"launchpad_requestApproval":          {true, (*Server).handleRequestApproval},
	"launchpad_approve":                  {true, (*Server).handleApprove},
	"launchpad_endProject":               {true, (*Server).handleEndProject},
	"launchpad_createRaiseSingle":        {true, (*Server).handleCreateRaiseSingle},
	"launchpad_createRaiseMulti":         {true, (*Server).handleCreateRaiseMulti},
	"launchpad_createDutchSingle":        {true, (*Server).handleCreateDutchSingle},
	"launchpad_createDutchMulti":         {true, (*Server).handleCreateDutchMulti},
	"launchpad_setWinners":               {true, (*Server).handleSetWinners},
	"launchpad_bidSingle":                {true, (*Server).handleBidSingle},
	"launchpad_bidMulti":                 {true, (*Server).handleBidMulti},
	"launchpad_closeSales":               {true, (*Server).handleCloseSales},
	"launchpad_claim":                    {true, (*Server).handleClaim},

	"launchpad_roles":           {false, (*Server).handleRoles},
	"launchpad_getBalance":      {false, (*Server).handleGetBalance},
	"launchpad_getCollection":   {false, (*Server).handleGetCollection},
	"launchpad_listCollections": {false, (*Server).handleListCollections},
	"launchpad_assetBalance":    {false, (*Server).handleAssetBalance},
	"launchpad_getProject":      {false, (*Server).handleGetProject},
	"launchpad_lastProjectId":   {false, (*Server).handleLastProjectID},
	"launchpad_getSale":         {false, (*Server).handleGetSale},
	"launchpad_lastSaleId":      {false, (*Server).handleLastSaleID},
	"launchpad_salesOf":         {false, (*Server).handleSalesOf},
	"launchpad_isWinner":        {false, (*Server).handleIsWinner},
	"launchpad_dutchPrice":      {false, (*Server).handleDutchPrice},
	"launchpad_royaltyInfo":     {false, (*Server).handleRoyaltyInfo},
	"launchpad_getRecord":       {false, (*Server).handleGetRecord},
}

// moduleOf returns the metrics label of an RPC method.
func moduleOf(name string) string {
	if idx := strings.IndexByte(name, '_'); idx > 0 {
		return name[:idx]
	}
	return "unknown"
}

type okResult struct {
	OK bool `json:"ok"`
}

type roleParams struct {
	Caller    string   `json:"caller"`
	Addresses []string `json:"addresses"`
	Enabled   bool     `json:"enabled"`
}

func (s *Server) handleSetAdmins(req *RPCRequest) (interface{}, error) {
	var p roleParams
	if err := decodeParams(req, &p); err != nil {
		return nil, err
	}
	caller, err := parseAddress("caller", p.Caller)
	if err != nil {
		return nil, err
	}
	addrs, err := parseAddresses("addresses", p.Addresses)
	if err != nil {
		return nil, err
	}
	if err := s.node.AccessSetAdmins(caller, addrs, p.Enabled); err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

func (s *Server) handleSetControllers(req *RPCRequest) (interface{}, error) {
	var p roleParams
	if err := decodeParams(req, &p); err != nil {
		return nil, err
	}
	caller, err := parseAddress("caller", p.Caller)
	if err != nil {
		return nil, err
	}
	addrs, err := parseAddresses("addresses", p.Addresses)
	if err != nil {
		return nil, err
	}
	if err := s.node.AccessSetControllers(caller, addrs, p.Enabled); err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

type transferParams struct {
	Caller string `json:"caller"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

func (s *Server) handleTransfer(req *RPCRequest) (interface{}, error) {
	var p transferParams
	if err := decodeParams(req, &p); err != nil {
		return nil, err
	}
	caller, err := parseAddress("caller", p.Caller)
	if err != nil {
		return nil, err
	}
	to, err := parseAddress("to", p.To)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount("amount", p.Amount)
	if err != nil {
		return nil, err
	}
	if err := s.node.BankTransfer(caller, to, amount); err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

type deployParams struct {
	Caller          string `json:"caller"`
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	IsSingle        bool   `json:"isSingle"`
	RoyaltyReceiver string `json:"royaltyReceiver,omitempty"`
	RoyaltyBps      uint64 `json:"royaltyBps,omitempty"`
}

func (s *Server) handleDeployCollection(req *RPCRequest) (interface{}, error) {
	var p deployParams
	if err := decodeParams(req, &p); err != nil {
		return nil, err
	}
	caller, err := parseAddress("caller", p.Caller)
	if err != nil {
		return nil, err
	}
	var receiver common.Address
	if strings.TrimSpace(p.RoyaltyReceiver) != "" {
		if receiver, err = parseAddress("royaltyReceiver", p.RoyaltyReceiver); err != nil {
			return nil, err
		}
	}
	addr, err := s.node.AssetsDeploy(caller, p.Name, p.Symbol, p.IsSingle, receiver, p.RoyaltyBps)
	if err != nil {
		return nil, err
	}
	return map[string]string{"collection": addr.Hex()}, nil
}

type collectionControllersParams struct {
	Caller     string   `json:"caller"`
	Collection string   `json:"collection"`
	Addresses  []string `json:"addresses"`
	Enabled    bool     `json:"enabled"`
}

func (s *Server) handleSetCollectionControllers(req *RPCRequest) (interface{}, error) {
	var p collectionControllersParams
	if err := decodeParams(req, &p); err != nil {
		return nil, err
	}
	caller, err := parseAddress("caller", p.Caller)
	if err != nil {
		return nil, err
	}
	collection, err := parseAddress("collection", p.Collection)
	if err != nil {
		return nil, err
	}
	addrs, err := parseAddresses("addresses", p.Addresses)
	if err != nil {
		return nil, err
	}
	if err := s.node.AssetsSetControllers(caller, collection, addrs, p.Enabled); err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

type mintParams struct {
	Caller     string   `json:"caller"`
	Collection string   `json:"collection"`
	To         string   `json:"to"`
	Quantities []uint64 `json:"quantities"`
}

func (s *Server) handleMint(req *RPCRequest) (interface{}, error) {
	var p mintParams
	if err := decodeParams(req, &p); err != nil {
		return nil, err
	}
	caller, err := parseAddress("caller", p.Caller)
	if err != nil {
		return nil, err
	}
	collection, err := parseAddress("collection", p.Collection)
	if err != nil {
		return nil, err
	}
	to, err := parseAddress("to", p.To)
	if err != nil {
		return nil, err
	}
	ids, err := s.node.AssetsMint(caller, collection, to, p.Quantities)
	if err != nil {
		return nil, err
	}
	return map[string][]uint64{"assetIds": ids}, nil
}

type approvalForAllParams struct {
	Caller     string `json:"caller"`
	Collection string `json:"collection"`
	Operator   string `json:"operator"`
	Approved   bool   `json:"approved"`
}

func (s *Server) handleSetApprovalForAll(req *RPCRequest) (interface{}, error) {
	var p approvalForAllParams
	if err := decodeParams(req, &p); err != nil {
		return nil, err
	}
	caller, err := parseAddress("caller", p.Caller)
	if err != nil {
		return nil, err
	}
	collection, err := parseAddress("collection", p.Collection)
	if err != nil {
		return nil, err
	}
	operator, err := parseAddress("operator", p.Operator)
	if err != nil {
		return nil, err
	}
	if err := s.node.AssetsSetApprovalForAll(caller, collection, operator, p.Approved); err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

type transferAssetParams struct {
	Caller     string `json:"caller"`
	Collection string `json:"collection"`
	To         string `json:"to"`
	AssetID    uint64 `json:"assetId"`
	Quantity   uint64 `json:"quantity"`
}

func (s *Server) handleTransferAsset(req *RPCRequest) (interface{}, error) {
	var p transferAssetParams
	if err := decodeParams(req, &p); err != nil {
		return nil, err
	}
	caller, err := parseAddress("caller", p.Caller)
	if err != nil {
		return nil, err
	}
	collection, err := parseAddress("collection", p.Collection)
	if err != nil {
		return nil, err
	}
	to, err := parseAddress("to", p.To)
	if err != nil {
		return nil, err
	}
	if err := s.node.AssetsTransfer(caller, collection, to, p.AssetID, p.Quantity); err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

type createProjectParams struct {
	Caller     string `json:"caller"`
	Collection string `json:"collection"`
	IsSingle   bool   `json:"isSingle"`
	IsRaise    bool   `json:"isRaise"`
}

func (s *Server) handleCreateProject(req *RPCRequest) (interface{}, error) {
	var p createProjectParams
	if err := decodeParams(req, &p); err != nil {
		return nil, err
	}
	caller, err := parseAddress("caller", p.Caller)
	if err != nil {
		return nil, err
	}
	collection, err := parseAddress("collection", p.Collection)
	if err != nil {
		return nil, err
	}
	id, err := s.node.ProjectCreate(caller, collection, p.IsSingle, p.IsRaise)
	if err != nil {
		return nil, err
	}
	return map[string]uint64{"projectId": id}, nil
}

type projectActorParams struct {
	Caller    string `json:"caller"`
	ProjectID uint64 `json:"projectId"`
	Manager   string `json:"manager,omitempty"`
	Percent   uint64 `json:"percent,omitempty"`
}

func (s *Server) decodeProjectActor(req *RPCRequest) (projectActorParams, common.Address, error) {
	var p projectActorParams
	if err := decodeParams(req, &p); err != nil {
		return p, common.Address{}, err
	}
	caller, err := parseAddress("caller", p.Caller)
	if err != nil {
		return p, common.Address{}, err
	}
	return p, caller, nil
}

func (s *Server) handleSetManager(req *RPCRequest) (interface{}, error) {
	p, caller, err := s.decodeProjectActor(req)
	if err != nil {
		return nil, err
	}
	manager, err := parseAddress("manager", p.Manager)
	if err != nil {
		return nil, err
	}
	if err := s.node.ProjectSetManager(caller, p.ProjectID, manager); err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

type setIDOParams struct {
	Caller    string  `json:"caller"`
	ProjectID uint64  `json:"projectId"`
	IDO       idoJSON `json:"ido"`
}

func (s *Server) handleSetIDO(req *RPCRequest) (interface{}, error) {
	var p setIDOParams
	if err := decodeParams(req, &p); err != nil {
		return nil, err
	}
	caller, err := parseAddress("caller", p.Caller)
	if err != nil {
		return nil, err
	}
	window := project.IDO{
		JoinStart:         p.IDO.JoinStart,
		JoinEnd:           p.IDO.JoinEnd,
		SaleStart:         p.IDO.SaleStart,
		SaleEnd:           p.IDO.SaleEnd,
		DistributionStart: p.IDO.DistributionStart,
	}
	if err := s.node.ProjectSetIDO(caller, p.ProjectID, window); err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

func (s *Server) handleRequestApproval(req *RPCRequest) (interface{}, error) {
	p, caller, err := s.decodeProjectActor(req)
	if err != nil {
		return nil, err
	}
	if err := s.node.ProjectRequestApproval(caller, p.ProjectID, p.Percent); err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

func (s *Server) handleApprove(req *RPCRequest) (interface{}, error) {
	p, caller, err := s.decodeProjectActor(req)
	if err != nil {
		return nil, err
	}
	if err := s.node.ProjectApprove(caller, p.ProjectID); err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

func (s *Server) handleEndProject(req *RPCRequest) (interface{}, error) {
	p, caller, err := s.decodeProjectActor(req)
	if err != nil {
		return nil, err
	}
	if err := s.node.ProjectEnd(caller, p.ProjectID); err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

type createSalesParams struct {
	Caller     string   `json:"caller"`
	ProjectID  uint64   `json:"projectId"`
	AssetIDs   []uint64 `json:"assetIds"`
	Quantities []uint64 `json:"quantities,omitempty"`
	Prices     []string `json:"prices,omitempty"`
	MaxPrices  []string `json:"maxPrices,omitempty"`
	MinPrices  []string `json:"minPrices,omitempty"`
	Decrements []string `json:"decrements,omitempty"`
}

type saleIDsResult struct {
	SaleIDs []uint64 `json:"saleIds"`
}

func (s *Server) handleCreateRaiseSingle(req *RPCRequest) (interface{}, error) {
	var p createSalesParams
	if err := decodeParams(req, &p); err != nil {
		return nil, err
	}
	caller, err := parseAddress("caller", p.Caller)
	if err != nil {
		return nil, err
	}
	prices, err := parseAmounts("prices", p.Prices)
	if err != nil {
		return nil, err
	}
	ids, err := s.node.SaleCreateRaiseSingle(caller, p.ProjectID, p.AssetIDs, prices)
	if err != nil {
		return nil, err
	}
	return saleIDsResult{SaleIDs: ids}, nil
}

func (s *Server) handleCreateRaiseMulti(req *RPCRequest) (interface{}, error) {
	var p createSalesParams
	if err := decodeParams(req, &p); err != nil {
		return nil, err
	}
	caller, err := parseAddress("caller", p.Caller)
	if err != nil {
		return nil, err
	}
	prices, err := parseAmounts("prices", p.Prices)
	if err != nil {
		return nil, err
	}
	ids, err := s.node.SaleCreateRaiseMulti(caller, p.ProjectID, p.AssetIDs, p.Quantities, prices)
	if err != nil {
		return nil, err
	}
	return saleIDsResult{SaleIDs: ids}, nil
}

func (s *Server) handleCreateDutchSingle(req *RPCRequest) (interface{}, error) {
	var p createSalesParams
	if err := decodeParams(req, &p); err != nil {
		return nil, err
	}
	caller, err := parseAddress("caller", p.Caller)
	if err != nil {
		return nil, err
	}
	maxPrices, err := parseAmounts("maxPrices", p.MaxPrices)
	if err != nil {
		return nil, err
	}
	minPrices, err := parseAmounts("minPrices", p.MinPrices)
	if err != nil {
		return nil, err
	}
	decrements, err := parseAmounts("decrements", p.Decrements)
	if err != nil {
		return nil, err
	}
	ids, err := s.node.SaleCreateDutchSingle(caller, p.ProjectID, p.AssetIDs, maxPrices, minPrices, decrements)
	if err != nil {
		return nil, err
	}
	return saleIDsResult{SaleIDs: ids}, nil
}

func (s *Server) handleCreateDutchMulti(req *RPCRequest) (interface{}, error) {
	var p createSalesParams
	if err := decodeParams(req, &p); err != nil {
		return nil, err
	}
	caller, err := parseAddress("caller", p.Caller)
	if err != nil {
		return nil, err
	}
	maxPrices, err := parseAmounts("maxPrices", p.MaxPrices)
	if err != nil {
		return nil, err
	}
	minPrices, err := parseAmounts("minPrices", p.MinPrices)
	if err != nil {
		return nil, err
	}
	decrements, err := parseAmounts("decrements", p.Decrements)
	if err != nil {
		return nil, err
	}
	ids, err := s.node.SaleCreateDutchMulti(caller, p.ProjectID, p.AssetIDs, p.Quantities, maxPrices, minPrices, decrements)
	if err != nil {
		return nil, err
	}
	return saleIDsResult{SaleIDs: ids}, nil
}

type setWinnersParams struct {
	Caller    string   `json:"caller"`
	SaleID    uint64   `json:"saleId"`
	Addresses []string `json:"addresses"`
	IsWinner  bool     `json:"isWinner"`
}

func (s *Server) handleSetWinners(req *RPCRequest) (interface{}, error) {
	var p setWinnersParams
	if err := decodeParams(req, &p); err != nil {
		return nil, err
	}
	caller, err := parseAddress("caller", p.Caller)
	if err != nil {
		return nil, err
	}
	addrs, err := parseAddresses("addresses", p.Addresses)
	if err != nil {
		return nil, err
	}
	if err := s.node.SaleSetWinners(caller, p.SaleID, addrs, p.IsWinner); err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

type bidParams struct {
	Caller   string `json:"caller"`
	SaleID   uint64 `json:"saleId"`
	Quantity uint64 `json:"quantity,omitempty"`
	Payment  string `json:"payment"`
}

func (s *Server) handleBidSingle(req *RPCRequest) (interface{}, error) {
	var p bidParams
	if err := decodeParams(req, &p); err != nil {
		return nil, err
	}
	caller, err := parseAddress("caller", p.Caller)
	if err != nil {
		return nil, err
	}
	payment, err := parseAmount("payment", p.Payment)
	if err != nil {
		return nil, err
	}
	settlement, err := s.node.SaleBidSingle(caller, p.SaleID, payment)
	if err != nil {
		return nil, err
	}
	return formatSettlement(settlement), nil
}

func (s *Server) handleBidMulti(req *RPCRequest) (interface{}, error) {
	var p bidParams
	if err := decodeParams(req, &p); err != nil {
		return nil, err
	}
	caller, err := parseAddress("caller", p.Caller)
	if err != nil {
		return nil, err
	}
	payment, err := parseAmount("payment", p.Payment)
	if err != nil {
		return nil, err
	}
	settlement, err := s.node.SaleBidMulti(caller, p.SaleID, p.Quantity, payment)
	if err != nil {
		return nil, err
	}
	return formatSettlement(settlement), nil
}

type closeSalesParams struct {
	Caller    string   `json:"caller"`
	ProjectID uint64   `json:"projectId"`
	SaleIDs   []uint64 `json:"saleIds"`
}

func (s *Server) handleCloseSales(req *RPCRequest) (interface{}, error) {
	var p closeSalesParams
	if err := decodeParams(req, &p); err != nil {
		return nil, err
	}
	caller, err := parseAddress("caller", p.Caller)
	if err != nil {
		return nil, err
	}
	if err := s.node.SaleClose(caller, p.ProjectID, p.SaleIDs); err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

type saleActorParams struct {
	Caller  string `json:"caller,omitempty"`
	SaleID  uint64 `json:"saleId"`
	Address string `json:"address,omitempty"`
}

func (s *Server) handleClaim(req *RPCRequest) (interface{}, error) {
	var p saleActorParams
	if err := decodeParams(req, &p); err != nil {
		return nil, err
	}
	caller, err := parseAddress("caller", p.Caller)
	if err != nil {
		return nil, err
	}
	if err := s.node.DistributionClaim(caller, p.SaleID); err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

type addressParams struct {
	Address string `json:"address"`
}

func (s *Server) handleRoles(req *RPCRequest) (interface{}, error) {
	var p addressParams
	if err := decodeParams(req, &p); err != nil {
		return nil, err
	}
	addr, err := parseAddress("address", p.Address)
	if err != nil {
		return nil, err
	}
	return formatRoles(addr.Hex(), s.node.RolesOf(addr)), nil
}

func (s *Server) handleGetBalance(req *RPCRequest) (interface{}, error) {
	var p addressParams
	if err := decodeParams(req, &p); err != nil {
		return nil, err
	}
	addr, err := parseAddress("address", p.Address)
	if err != nil {
		return nil, err
	}
	balance, err := s.node.Balance(addr)
	if err != nil {
		return nil, err
	}
	return map[string]string{"address": addr.Hex(), "balance": amountString(balance)}, nil
}

type collectionParams struct {
	Collection string `json:"collection"`
	Holder     string `json:"holder,omitempty"`
	AssetID    uint64 `json:"assetId,omitempty"`
}

func (s *Server) handleGetCollection(req *RPCRequest) (interface{}, error) {
	var p collectionParams
	if err := decodeParams(req, &p); err != nil {
		return nil, err
	}
	addr, err := parseAddress("collection", p.Collection)
	if err != nil {
		return nil, err
	}
	col, err := s.node.Collection(addr)
	if err != nil {
		return nil, err
	}
	return formatCollection(col), nil
}

func (s *Server) handleListCollections(req *RPCRequest) (interface{}, error) {
	addrs, err := s.node.Collections()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(addrs))
	for i, addr := range addrs {
		out[i] = addr.Hex()
	}
	return map[string][]string{"collections": out}, nil
}

func (s *Server) handleAssetBalance(req *RPCRequest) (interface{}, error) {
	var p collectionParams
	if err := decodeParams(req, &p); err != nil {
		return nil, err
	}
	collection, err := parseAddress("collection", p.Collection)
	if err != nil {
		return nil, err
	}
	holder, err := parseAddress("holder", p.Holder)
	if err != nil {
		return nil, err
	}
	n, err := s.node.AssetBalance(collection, holder, p.AssetID)
	if err != nil {
		return nil, err
	}
	return map[string]uint64{"balance": n}, nil
}

type projectIDParams struct {
	ProjectID uint64 `json:"projectId"`
}

func (s *Server) handleGetProject(req *RPCRequest) (interface{}, error) {
	var p projectIDParams
	if err := decodeParams(req, &p); err != nil {
		return nil, err
	}
	proj, err := s.node.Project(p.ProjectID)
	if err != nil {
		return nil, err
	}
	return formatProject(proj), nil
}

type lastIDResult struct {
	ID uint64 `json:"id"`
}

func (s *Server) handleLastProjectID(req *RPCRequest) (interface{}, error) {
	id, err := s.node.LastProjectID()
	if err != nil {
		return nil, err
	}
	return lastIDResult{ID: id}, nil
}

func (s *Server) handleLastSaleID(req *RPCRequest) (interface{}, error) {
	id, err := s.node.LastSaleID()
	if err != nil {
		return nil, err
	}
	return lastIDResult{ID: id}, nil
}

func (s *Server) handleSalesOf(req *RPCRequest) (interface{}, error) {
	var p projectIDParams
	if err := decodeParams(req, &p); err != nil {
		return nil, err
	}
	ids, err := s.node.SalesOf(p.ProjectID)
	if err != nil {
		return nil, err
	}
	return saleIDsResult{SaleIDs: ids}, nil
}

func (s *Server) handleGetSale(req *RPCRequest) (interface{}, error) {
	var p saleActorParams
	if err := decodeParams(req, &p); err != nil {
		return nil, err
	}
	sl, err := s.node.Sale(p.SaleID)
	if err != nil {
		return nil, err
	}
	return formatSale(sl), nil
}

func (s *Server) handleIsWinner(req *RPCRequest) (interface{}, error) {
	var p saleActorParams
	if err := decodeParams(req, &p); err != nil {
		return nil, err
	}
	addr, err := parseAddress("address", p.Address)
	if err != nil {
		return nil, err
	}
	ok, err := s.node.IsWinner(p.SaleID, addr)
	if err != nil {
		return nil, err
	}
	return map[string]bool{"isWinner": ok}, nil
}

func (s *Server) handleDutchPrice(req *RPCRequest) (interface{}, error) {
	var p saleActorParams
	if err := decodeParams(req, &p); err != nil {
		return nil, err
	}
	price, err := s.node.DutchPrice(p.SaleID)
	if err != nil {
		return nil, err
	}
	return map[string]string{"price": amountString(price)}, nil
}

type royaltyParams struct {
	ProjectID uint64 `json:"projectId"`
	AssetID   uint64 `json:"assetId"`
	Gross     string `json:"gross"`
}

func (s *Server) handleRoyaltyInfo(req *RPCRequest) (interface{}, error) {
	var p royaltyParams
	if err := decodeParams(req, &p); err != nil {
		return nil, err
	}
	gross, err := parseAmount("gross", p.Gross)
	if err != nil {
		return nil, err
	}
	info, err := s.node.RoyaltyInfo(p.ProjectID, p.AssetID, gross)
	if err != nil {
		return nil, err
	}
	return formatRoyalty(info), nil
}

func (s *Server) handleGetRecord(req *RPCRequest) (interface{}, error) {
	var p saleActorParams
	if err := decodeParams(req, &p); err != nil {
		return nil, err
	}
	rec, err := s.node.Record(p.SaleID)
	if err != nil {
		return nil, err
	}
	return formatRecord(rec), nil
}
