package core

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ErrStaleNonce reports a signed request whose nonce was already consumed.
var ErrStaleNonce = errors.New("core: nonce already used")

func nonceKey(addr common.Address) []byte {
	return []byte("launchpad/nonce/" + addr.Hex())
}

// Nonce returns the highest request nonce consumed by addr.
func (n *Node) Nonce(addr common.Address) (uint64, error) {
	var last uint64
	err := n.query(func() error {
		_, err := n.state.KVGet(nonceKey(addr), &last)
		return err
	})
	return last, err
}

// UseNonce consumes nonce for addr. Nonces must strictly increase per
// address, so a replayed signed request is rejected.
func (n *Node) UseNonce(addr common.Address, nonce uint64) error {
	return n.execute("rpc_nonce", addr, func() error {
		var last uint64
		if _, err := n.state.KVGet(nonceKey(addr), &last); err != nil {
			return err
		}
		if nonce <= last {
			return fmt.Errorf("%w: %d, last %d", ErrStaleNonce, nonce, last)
		}
		return n.state.KVPut(nonceKey(addr), nonce)
	})
}
