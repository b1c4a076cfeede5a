package core

import (
	"context"

	"launchpad/core/state"
	"launchpad/native/token"
)

// Balance returns the owner's balance of mint.
func (n *Node) Balance(mint, owner [20]byte) (uint64, error) {
	var balance uint64
	err := n.view(func(*state.Manager) error {
		var err error
		balance, err = n.tokens.Balance(mint, owner)
		return err
	})
	return balance, err
}

// Mint returns the asset registered at addr.
func (n *Node) Mint(addr [20]byte) (*token.Mint, error) {
	var mint *token.Mint
	err := n.view(func(*state.Manager) error {
		var err error
		mint, err = n.tokens.Mint(addr)
		return err
	})
	return mint, err
}

// Transfer moves amount units of mint between two accounts on behalf of from.
func (n *Node) Transfer(ctx context.Context, from, mint, to [20]byte, amount uint64) error {
	return n.apply(ctx, "token_transfer", func(*state.Manager) error {
		return n.tokens.Transfer(from, mint, to, amount)
	})
}
