package crypto

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/crypto"
)

// derivationDomain separates derived account addresses from every other
// keccak256 preimage used on the chain.
var derivationDomain = []byte("launchpad/derived-account")

// ProgramID derives the identity of a native program from its registered name.
func ProgramID(name string) [AddressLength]byte {
	hash := crypto.Keccak256([]byte("launchpad/program"), []byte(name))
	var id [AddressLength]byte
	copy(id[:], hash[len(hash)-AddressLength:])
	return id
}

// DeriveAddress computes the account address controlled by the supplied
// program for the provided seeds. Each seed is length-prefixed so distinct seed
// lists can never collide by concatenation. No private key exists for the
// returned address; only the owning program can authorise on its behalf.
func DeriveAddress(program [AddressLength]byte, seeds ...[]byte) [AddressLength]byte {
	size := len(derivationDomain) + AddressLength
	for _, seed := range seeds {
		size += 4 + len(seed)
	}
	buf := make([]byte, 0, size)
	buf = append(buf, derivationDomain...)
	buf = append(buf, program[:]...)
	for _, seed := range seeds {
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(seed)))
		buf = append(buf, seed...)
	}
	hash := crypto.Keccak256(buf)
	var addr [AddressLength]byte
	copy(addr[:], hash[len(hash)-AddressLength:])
	return addr
}
