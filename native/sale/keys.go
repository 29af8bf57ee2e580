package sale

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
)

const saleCounter = "sale.id"

var (
	salePrefix        = []byte("sale/record/")
	winnerPrefix      = []byte("sale/winner/")
	projectSalePrefix = []byte("sale/project/")
)

func saleKey(id uint64) []byte {
	return strconv.AppendUint(append([]byte(nil), salePrefix...), id, 10)
}

func winnerKey(saleID uint64, addr common.Address) []byte {
	key := strconv.AppendUint(append([]byte(nil), winnerPrefix...), saleID, 10)
	return append(append(key, '/'), addr.Bytes()...)
}

func projectSalesKey(projectID uint64) []byte {
	return strconv.AppendUint(append([]byte(nil), projectSalePrefix...), projectID, 10)
}

func encodeID(id uint64) []byte { return strconv.AppendUint(nil, id, 10) }
