package token

import (
	"launchpad/crypto"
)

// Program is the identity of a native module. Accounts derived from it have no
// private key; the holder of the Program value is the only party able to
// authorise on their behalf.
type Program struct {
	name   string
	id     [20]byte
	engine *Engine
}

// Name returns the registered program name.
func (p *Program) Name() string { return p.name }

// ID returns the program identity.
func (p *Program) ID() [20]byte { return p.id }

// Derive computes the account address controlled by the program for seeds.
func (p *Program) Derive(seeds ...[]byte) [20]byte {
	return crypto.DeriveAddress(p.id, seeds...)
}

// Signer issues a capability that authorises exactly one token operation on
// behalf of the account derived from seeds.
func (p *Program) Signer(seeds ...[]byte) *Signer {
	return &Signer{
		program: p,
		address: p.Derive(seeds...),
	}
}

// Signer is a single-use authorisation for a program derived account. The
// zero value carries no authority.
type Signer struct {
	program *Program
	address [20]byte
	spent   bool
}

// Address returns the account the signer speaks for.
func (s *Signer) Address() [20]byte {
	if s == nil {
		return [20]byte{}
	}
	return s.address
}

// Spent reports whether the signer has already been consumed.
func (s *Signer) Spent() bool {
	return s != nil && s.spent
}
