package state

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"launchpad/core/events"
	"launchpad/storage"
)

var (
	balancePrefix = []byte("balance:")
	rolePrefix    = []byte("role:")
	counterPrefix = []byte("counter:")
)

// Manager provides journaled read/write access to launchpad state. Writes are
// buffered in memory until Commit; Snapshot and RevertToSnapshot roll back any
// buffered writes and events recorded after the snapshot was taken.
//
// Manager is not safe for concurrent use. Callers serialise operations (see
// core.Node).
type Manager struct {
	db        storage.Database
	dirty     map[string][]byte
	journal   []journalEntry
	events    []events.Event
	revisions []revision
}

type journalEntry struct {
	key      string
	prev     []byte
	hadDirty bool
}

type revision struct {
	journalLen int
	eventsLen  int
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db, dirty: make(map[string][]byte)}
}

func hashKey(key []byte) []byte {
	return ethcrypto.Keccak256(key)
}

func (m *Manager) get(hashed []byte) ([]byte, error) {
	if value, ok := m.dirty[string(hashed)]; ok {
		if value == nil {
			return nil, nil
		}
		return value, nil
	}
	if m.db == nil {
		return nil, nil
	}
	value, err := m.db.Get(hashed)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return value, err
}

func (m *Manager) set(hashed []byte, value []byte) {
	key := string(hashed)
	prev, had := m.dirty[key]
	m.journal = append(m.journal, journalEntry{key: key, prev: prev, hadDirty: had})
	m.dirty[key] = value
}

// Snapshot returns an identifier that can later be passed to RevertToSnapshot.
func (m *Manager) Snapshot() int {
	m.revisions = append(m.revisions, revision{journalLen: len(m.journal), eventsLen: len(m.events)})
	return len(m.revisions) - 1
}

// RevertToSnapshot undoes every write and event recorded after the snapshot
// was taken. Snapshots taken after id are invalidated.
func (m *Manager) RevertToSnapshot(id int) {
	if id < 0 || id >= len(m.revisions) {
		return
	}
	rev := m.revisions[id]
	for i := len(m.journal) - 1; i >= rev.journalLen; i-- {
		entry := m.journal[i]
		if entry.hadDirty {
			m.dirty[entry.key] = entry.prev
		} else {
			delete(m.dirty, entry.key)
		}
	}
	m.journal = m.journal[:rev.journalLen]
	m.events = m.events[:rev.eventsLen]
	m.revisions = m.revisions[:id]
}

// Emit buffers an event until the next Commit. Buffered events are discarded
// by RevertToSnapshot and Discard.
func (m *Manager) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	m.events = append(m.events, evt)
}

// PendingEvents returns the events buffered since the last commit.
func (m *Manager) PendingEvents() []events.Event {
	out := make([]events.Event, len(m.events))
	copy(out, m.events)
	return out
}

// Commit flushes buffered writes to the database in a single batch and
// returns the events recorded since the previous commit.
func (m *Manager) Commit() ([]events.Event, error) {
	if m.db != nil && len(m.dirty) > 0 {
		batch := storage.NewBatch()
		keys := make([]string, 0, len(m.dirty))
		for key := range m.dirty {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if value := m.dirty[key]; value == nil {
				batch.Delete([]byte(key))
			} else {
				batch.Put([]byte(key), value)
			}
		}
		if err := m.db.Write(batch); err != nil {
			return nil, fmt.Errorf("state: commit: %w", err)
		}
	}
	committed := m.events
	m.reset()
	return committed, nil
}

// Discard drops all buffered writes and events.
func (m *Manager) Discard() { m.reset() }

func (m *Manager) reset() {
	m.dirty = make(map[string][]byte)
	m.journal = nil
	m.events = nil
	m.revisions = nil
}

// KVPut stores the provided value under the supplied key using RLP encoding.
// The key is automatically hashed with keccak256.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	m.set(hashKey(key), encoded)
	return nil
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the key
// existed in state.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, err := m.get(hashKey(key))
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVDelete removes the value stored under key.
func (m *Manager) KVDelete(key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	m.set(hashKey(key), nil)
	return nil
}

// IndexAppend adds value as the next entry of the append-only list rooted at
// key and returns its position. Only the length and the new entry are
// written, so appends stay constant-cost as the list grows.
func (m *Manager) IndexAppend(key []byte, value []byte) (uint64, error) {
	n, err := m.IndexLen(key)
	if err != nil {
		return 0, err
	}
	if err := m.KVPut(indexEntryKey(key, n), value); err != nil {
		return 0, err
	}
	if err := m.KVPut(key, n+1); err != nil {
		return 0, err
	}
	return n, nil
}

// IndexLen returns the number of entries appended under key.
func (m *Manager) IndexLen(key []byte) (uint64, error) {
	var n uint64
	if _, err := m.KVGet(key, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// IndexList returns every entry of the list rooted at key in append order.
func (m *Manager) IndexList(key []byte) ([][]byte, error) {
	n, err := m.IndexLen(key)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, 0, n)
	for i := uint64(0); i < n; i++ {
		var entry []byte
		ok, err := m.KVGet(indexEntryKey(key, i), &entry)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("kv: index %q missing entry %d", key, i)
		}
		out = append(out, entry)
	}
	return out, nil
}

func indexEntryKey(key []byte, i uint64) []byte {
	out := append(append([]byte(nil), key...), "/#"...)
	return strconv.AppendUint(out, i, 10)
}

// KVGetList retrieves an RLP-encoded slice stored under the provided key and
// decodes it into the supplied destination slice pointer. When no value is
// present the destination is initialised with an empty slice.
func (m *Manager) KVGetList(key []byte, out interface{}) error {
	ok, err := m.KVGet(key, out)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	val := reflect.ValueOf(out)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("kv: destination must be a non-nil pointer")
	}
	elem := val.Elem()
	if elem.Kind() != reflect.Slice {
		return fmt.Errorf("kv: destination must point to a slice")
	}
	elem.Set(reflect.MakeSlice(elem.Type(), 0, 0))
	return nil
}

func prefixedKey(prefix []byte, parts ...[]byte) []byte {
	buf := append([]byte(nil), prefix...)
	for i, part := range parts {
		if i > 0 {
			buf = append(buf, ':')
		}
		buf = append(buf, part...)
	}
	return buf
}

// NextID increments and returns the monotonic counter identified by name. The
// first value handed out is 1.
func (m *Manager) NextID(name string) (uint64, error) {
	current, err := m.LastID(name)
	if err != nil {
		return 0, err
	}
	next := current + 1
	if next == 0 {
		return 0, fmt.Errorf("state: counter %s overflow", name)
	}
	if err := m.KVPut(prefixedKey(counterPrefix, []byte(name)), next); err != nil {
		return 0, err
	}
	return next, nil
}

// LastID returns the most recent value handed out by NextID, or zero.
func (m *Manager) LastID(name string) (uint64, error) {
	var current uint64
	if _, err := m.KVGet(prefixedKey(counterPrefix, []byte(name)), &current); err != nil {
		return 0, err
	}
	return current, nil
}

// SetBalance stores the native coin balance of addr.
func (m *Manager) SetBalance(addr common.Address, amount *big.Int) error {
	if amount == nil {
		amount = big.NewInt(0)
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("balance must not be negative")
	}
	return m.KVPut(prefixedKey(balancePrefix, addr.Bytes()), amount)
}

// Balance returns the native coin balance of addr.
func (m *Manager) Balance(addr common.Address) (*big.Int, error) {
	amount := new(big.Int)
	ok, err := m.KVGet(prefixedKey(balancePrefix, addr.Bytes()), amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return amount, nil
}

func roleKey(role string) []byte {
	return prefixedKey(rolePrefix, []byte(strings.TrimSpace(role)))
}

// SetRole associates an address with the specified role. Duplicate assignments
// are ignored while the stored list remains sorted for determinism.
func (m *Manager) SetRole(role string, addr common.Address) error {
	if strings.TrimSpace(role) == "" {
		return fmt.Errorf("role must not be empty")
	}
	members, err := m.RoleMembers(role)
	if err != nil {
		return err
	}
	for _, existing := range members {
		if existing == addr {
			return nil
		}
	}
	members = append(members, addr)
	sort.Slice(members, func(i, j int) bool {
		return bytes.Compare(members[i].Bytes(), members[j].Bytes()) < 0
	})
	return m.KVPut(roleKey(role), members)
}

// RemoveRole dissociates addr from role. Removing an absent member is a no-op.
func (m *Manager) RemoveRole(role string, addr common.Address) error {
	members, err := m.RoleMembers(role)
	if err != nil {
		return err
	}
	kept := members[:0]
	for _, existing := range members {
		if existing != addr {
			kept = append(kept, existing)
		}
	}
	return m.KVPut(roleKey(role), kept)
}

// RoleMembers returns all addresses assigned to the provided role.
func (m *Manager) RoleMembers(role string) ([]common.Address, error) {
	var members []common.Address
	if err := m.KVGetList(roleKey(role), &members); err != nil {
		return nil, err
	}
	return members, nil
}

// HasRole reports whether the provided address is associated with the
// specified role. Errors while reading the underlying state result in a false
// return, matching the best-effort semantics required by the callers.
func (m *Manager) HasRole(role string, addr common.Address) bool {
	members, err := m.RoleMembers(role)
	if err != nil {
		return false
	}
	for _, member := range members {
		if member == addr {
			return true
		}
	}
	return false
}
