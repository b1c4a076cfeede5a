package crypto

import (
	"crypto/ecdsa"
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/ethereum/go-ethereum/crypto"
)

// AddressPrefix defines the human-readable part used when rendering addresses.
type AddressPrefix string

// AccountPrefix renders wallets and derived accounts alike.
const AccountPrefix AddressPrefix = "lp"

// AddressLength is the size in bytes of every account identity.
const AddressLength = 20

// Address is a 20-byte identity paired with the prefix it was rendered with.
type Address struct {
	prefix AddressPrefix
	raw    [AddressLength]byte
}

// NewAddress wraps raw bytes into an address. It returns an error when the
// payload is not exactly 20 bytes long.
func NewAddress(prefix AddressPrefix, b []byte) (Address, error) {
	if len(b) != AddressLength {
		return Address{}, fmt.Errorf("address must be %d bytes long, got %d", AddressLength, len(b))
	}
	addr := Address{prefix: prefix}
	copy(addr.raw[:], b)
	return addr, nil
}

func (a Address) String() string {
	conv, err := bech32.ConvertBits(a.raw[:], 8, 5, true)
	if err != nil {
		panic(err)
	}
	encoded, err := bech32.Encode(string(a.prefix), conv)
	if err != nil {
		panic(err)
	}
	return encoded
}

// Bytes returns a copy of the raw identity.
func (a Address) Bytes() []byte {
	return append([]byte(nil), a.raw[:]...)
}

// Array returns the fixed size representation used by the native engines.
func (a Address) Array() [AddressLength]byte {
	return a.raw
}

// Prefix returns the human-readable prefix associated with the address.
func (a Address) Prefix() AddressPrefix {
	return a.prefix
}

// DecodeAddress parses a bech32 address with any prefix.
func DecodeAddress(addrStr string) (Address, error) {
	prefix, decoded, err := bech32.Decode(addrStr)
	if err != nil {
		return Address{}, fmt.Errorf("invalid bech32 string: %w", err)
	}
	conv, err := bech32.ConvertBits(decoded, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("error converting bits: %w", err)
	}
	return NewAddress(AddressPrefix(prefix), conv)
}

// DecodeAccount parses an account address, rejecting any prefix other than
// AccountPrefix. Surrounding whitespace is ignored.
func DecodeAccount(value string) ([AddressLength]byte, error) {
	addr, err := DecodeAddress(strings.TrimSpace(value))
	if err != nil {
		return [AddressLength]byte{}, err
	}
	if addr.prefix != AccountPrefix {
		return [AddressLength]byte{}, fmt.Errorf("unexpected address prefix %q", addr.prefix)
	}
	return addr.raw, nil
}

// FormatAccount renders a raw identity using the account prefix.
func FormatAccount(addr [AddressLength]byte) string {
	return Address{prefix: AccountPrefix, raw: addr}.String()
}

// PrivateKey is a secp256k1 key controlling an account.
type PrivateKey struct {
	*ecdsa.PrivateKey
}

// PublicKey is the public half of a PrivateKey.
type PublicKey struct {
	*ecdsa.PublicKey
}

func GeneratePrivateKey() (*PrivateKey, error) {
	key, err := ecdsa.GenerateKey(crypto.S256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}

// Bytes returns the byte representation of the private key.
func (k *PrivateKey) Bytes() []byte {
	return crypto.FromECDSA(k.PrivateKey)
}

func (k *PrivateKey) PubKey() *PublicKey {
	return &PublicKey{&k.PrivateKey.PublicKey}
}

// Address derives the account controlled by the key: the last 20 bytes of
// the keccak256 hash of the uncompressed public key.
func (k *PublicKey) Address() Address {
	return Address{prefix: AccountPrefix, raw: crypto.PubkeyToAddress(*k.PublicKey)}
}
