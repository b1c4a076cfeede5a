package storage

import (
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/ethdb"
	gethleveldb "github.com/ethereum/go-ethereum/ethdb/leveldb"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/triedb"
	"github.com/syndtr/goleveldb/leveldb"
)

// ErrNotFound is returned by Get when the requested key is absent.
var ErrNotFound = errors.New("storage: key not found")

// Database is a generic interface for a key-value store.
// This allows the chain to use any database backend (in-memory or persistent).
// Every backend also exposes a trie database sharing the same key space so the
// state trie and chain metadata are persisted together.
type Database interface {
	Put(key []byte, value []byte) error
	// Write applies every entry in a single atomic batch.
	Write(entries ...Entry) error
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	TrieDB() *triedb.Database
	Close() // A way to gracefully shut down the database connection.
}

// Entry is a key/value pair written by Database.Write.
type Entry struct {
	Key   []byte
	Value []byte
}

func writeBatch(batch ethdb.Batch, entries []Entry) error {
	for _, entry := range entries {
		if err := batch.Put(entry.Key, entry.Value); err != nil {
			return err
		}
	}
	return batch.Write()
}

// --- In-Memory DB (for testing) ---

type MemDB struct {
	mu     sync.RWMutex
	kv     *memorydb.Database
	trieDB *triedb.Database
}

func NewMemDB() *MemDB {
	kv := memorydb.New()
	return &MemDB{
		kv:     kv,
		trieDB: triedb.NewDatabase(rawdb.NewDatabase(kv), triedb.HashDefaults),
	}
}

func (db *MemDB) Put(key []byte, value []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.kv.Put(key, value)
}

func (db *MemDB) Write(entries ...Entry) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return writeBatch(db.kv.NewBatch(), entries)
}

func (db *MemDB) Get(key []byte) ([]byte, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	ok, err := db.kv.Has(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return db.kv.Get(key)
}

func (db *MemDB) Has(key []byte) (bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.kv.Has(key)
}

// TrieDB returns the trie database layered over the in-memory store.
func (db *MemDB) TrieDB() *triedb.Database {
	return db.trieDB
}

// Close satisfies the Database interface for MemDB.
func (db *MemDB) Close() {
	// Nothing to close for an in-memory database.
}

// --- Persistent DB (for mainnet) ---

// LevelDB is a persistent key-value store using LevelDB.
type LevelDB struct {
	db     *gethleveldb.Database
	trieDB *triedb.Database
}

// NewLevelDB creates or opens a LevelDB database at the specified path.
func NewLevelDB(path string) (*LevelDB, error) {
	db, err := gethleveldb.New(path, 16, 16, "launchpad/db/", false)
	if err != nil {
		return nil, err
	}
	return &LevelDB{
		db:     db,
		trieDB: triedb.NewDatabase(rawdb.NewDatabase(db), triedb.HashDefaults),
	}, nil
}

// Put inserts or updates a key-value pair.
func (ldb *LevelDB) Put(key []byte, value []byte) error {
	return ldb.db.Put(key, value)
}

// Write applies entries atomically through a LevelDB batch.
func (ldb *LevelDB) Write(entries ...Entry) error {
	return writeBatch(ldb.db.NewBatch(), entries)
}

// Get retrieves a value for a given key.
func (ldb *LevelDB) Get(key []byte) ([]byte, error) {
	value, err := ldb.db.Get(key)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	return value, err
}

// Has reports whether the key is present.
func (ldb *LevelDB) Has(key []byte) (bool, error) {
	return ldb.db.Has(key)
}

// TrieDB returns the trie database layered over LevelDB.
func (ldb *LevelDB) TrieDB() *triedb.Database {
	return ldb.trieDB
}

// Close closes the database connection.
func (ldb *LevelDB) Close() {
	_ = ldb.trieDB.Close()
	_ = ldb.db.Close()
}
