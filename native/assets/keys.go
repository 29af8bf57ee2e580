package assets

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
)

var (
	collectionPrefix = []byte("assets/collection/")
	balancePrefix    = []byte("assets/balance/")
	ownerPrefix      = []byte("assets/owner/")
	approvalPrefix   = []byte("assets/approval/")
	collectionIndex  = []byte("assets/index")
)

const collectionCounter = "assets.collections"

func collectionKey(addr common.Address) []byte {
	return append(append([]byte(nil), collectionPrefix...), addr.Bytes()...)
}

func balanceKey(collection common.Address, assetID uint64, holder common.Address) []byte {
	key := append([]byte(nil), balancePrefix...)
	key = append(key, collection.Bytes()...)
	key = strconv.AppendUint(append(key, '/'), assetID, 10)
	return append(append(key, '/'), holder.Bytes()...)
}

func ownerKey(collection common.Address, assetID uint64) []byte {
	key := append([]byte(nil), ownerPrefix...)
	key = append(key, collection.Bytes()...)
	return strconv.AppendUint(append(key, '/'), assetID, 10)
}

func approvalKey(collection, owner, operator common.Address) []byte {
	key := append([]byte(nil), approvalPrefix...)
	key = append(key, collection.Bytes()...)
	key = append(append(key, '/'), owner.Bytes()...)
	return append(append(key, '/'), operator.Bytes()...)
}
