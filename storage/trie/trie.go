package trie

import (
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	gethtrie "github.com/ethereum/go-ethereum/trie"
	"github.com/ethereum/go-ethereum/trie/trienode"
	"github.com/ethereum/go-ethereum/triedb"

	"launchpad/storage"
)

// Trie is a Merkle Patricia trie over storage.Database that remembers its last
// committed root. Keys must already be keccak256 hashes.
//
// Trie is not safe for concurrent use.
type Trie struct {
	trieDB *triedb.Database
	trie   *gethtrie.Trie
	root   common.Hash
}

// Snapshot captures the in-memory trie contents and the committed root so a
// failed operation, including a failed commit, can be discarded.
type Snapshot struct {
	trie *gethtrie.Trie
	root common.Hash
}

// NewTrie opens the trie at root. A nil or empty root denotes the empty trie.
func NewTrie(store storage.Database, root []byte) (*Trie, error) {
	rootHash := gethtypes.EmptyRootHash
	if len(root) > 0 {
		rootHash = common.BytesToHash(root)
	}
	t := &Trie{trieDB: store.TrieDB()}
	if err := t.open(rootHash); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Trie) open(root common.Hash) error {
	underlying, err := gethtrie.New(gethtrie.TrieID(root), t.trieDB)
	if err != nil {
		return err
	}
	t.trie = underlying
	t.root = root
	return nil
}

// Get returns the value stored at key, or nil when absent.
func (t *Trie) Get(key []byte) ([]byte, error) {
	return t.trie.Get(key)
}

// Update inserts or replaces the value at key.
func (t *Trie) Update(key, value []byte) error {
	return t.trie.Update(key, value)
}

// Delete removes key.
func (t *Trie) Delete(key []byte) error {
	return t.trie.Delete(key)
}

// Hash returns the root hash including uncommitted mutations.
func (t *Trie) Hash() common.Hash {
	return t.trie.Hash()
}

// Root returns the last committed root hash.
func (t *Trie) Root() common.Hash {
	return t.root
}

// Dirty reports whether mutations are pending since the last commit.
func (t *Trie) Dirty() bool {
	return t.trie.Hash() != t.root
}

// Snapshot records the current in-memory contents.
func (t *Trie) Snapshot() *Snapshot {
	return &Snapshot{trie: t.trie.Copy(), root: t.root}
}

// Revert restores the contents and committed root captured by the snapshot.
func (t *Trie) Revert(s *Snapshot) {
	if s == nil || s.trie == nil {
		return
	}
	t.trie = s.trie
	t.root = s.root
}

// Commit flushes pending nodes to the backing database as the child of the
// previous root at height and reopens the trie at the new root.
func (t *Trie) Commit(height uint64) (common.Hash, error) {
	parent := t.root
	newRoot, nodes := t.trie.Commit(false)
	if nodes != nil {
		merged := trienode.NewMergedNodeSet()
		if err := merged.Merge(nodes); err != nil {
			return common.Hash{}, err
		}
		if err := t.trieDB.Update(newRoot, parent, height, merged, nil); err != nil {
			return common.Hash{}, err
		}
		if err := t.trieDB.Commit(newRoot, false); err != nil {
			return common.Hash{}, err
		}
	}
	if err := t.open(newRoot); err != nil {
		return common.Hash{}, err
	}
	return newRoot, nil
}
