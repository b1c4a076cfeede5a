package state

import (
	"bytes"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"launchpad/storage/trie"
)

// Manager reads and writes RLP encoded records in the state trie. A manager is
// scoped to a single operation; the node creates a fresh one per call.
type Manager struct {
	trie *trie.Trie
}

// NewManager creates a state manager operating on the provided trie.
func NewManager(tr *trie.Trie) *Manager {
	return &Manager{trie: tr}
}

// Trie keys are keccak256 hashes of the logical key.
func kvKey(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("kv: key must not be empty")
	}
	return ethcrypto.Keccak256(key), nil
}

// KVPut RLP-encodes value and stores it under key.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	hashed, err := kvKey(key)
	if err != nil {
		return err
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.trie.Update(hashed, encoded)
}

// KVGet decodes the value stored under key into out. The boolean reports
// whether the key existed; a nil out only checks for presence.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	data, err := m.kvRaw(key)
	if err != nil || len(data) == 0 {
		return false, err
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, fmt.Errorf("kv: decode %q: %w", key, err)
	}
	return true, nil
}

// KVDelete removes key. Deleting a missing key is a no-op.
func (m *Manager) KVDelete(key []byte) error {
	hashed, err := kvKey(key)
	if err != nil {
		return err
	}
	return m.trie.Delete(hashed)
}

// KVAppend adds value to the list stored under key unless it is already
// present, keeping the first-seen order.
func (m *Manager) KVAppend(key []byte, value []byte) error {
	list, err := m.kvList(key)
	if err != nil {
		return err
	}
	for _, existing := range list {
		if bytes.Equal(existing, value) {
			return nil
		}
	}
	return m.KVPut(key, append(list, append([]byte(nil), value...)))
}

// KVGetList returns the list stored under key, or an empty list.
func (m *Manager) KVGetList(key []byte) ([][]byte, error) {
	list, err := m.kvList(key)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = [][]byte{}
	}
	return list, nil
}

func (m *Manager) kvRaw(key []byte) ([]byte, error) {
	hashed, err := kvKey(key)
	if err != nil {
		return nil, err
	}
	return m.trie.Get(hashed)
}

func (m *Manager) kvList(key []byte) ([][]byte, error) {
	var list [][]byte
	if _, err := m.KVGet(key, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// getRecord loads the record stored under key into a fresh T.
func getRecord[T any](m *Manager, key []byte) (*T, bool, error) {
	record := new(T)
	ok, err := m.KVGet(key, record)
	if err != nil || !ok {
		return nil, ok, err
	}
	return record, true, nil
}

// putIndexed stores record under prefix+addr and appends addr to index the
// first time the record is written.
func putIndexed(m *Manager, prefix, index []byte, addr [20]byte, record interface{}) error {
	key := prefixed(prefix, addr[:])
	existed, err := m.KVGet(key, nil)
	if err != nil {
		return err
	}
	if err := m.KVPut(key, record); err != nil {
		return err
	}
	if existed {
		return nil
	}
	return m.KVAppend(index, addr[:])
}

// addressIndex reads an index list written by putIndexed.
func (m *Manager) addressIndex(index []byte) ([][20]byte, error) {
	raw, err := m.KVGetList(index)
	if err != nil {
		return nil, err
	}
	out := make([][20]byte, 0, len(raw))
	for _, entry := range raw {
		if len(entry) != 20 {
			continue
		}
		var addr [20]byte
		copy(addr[:], entry)
		out = append(out, addr)
	}
	return out, nil
}
