package core

import (
	"context"

	"launchpad/core/state"
	"launchpad/native/launchpad"
	"launchpad/native/pricing"
)

// CreateLaunch opens a sale for a new asset whose mint address is derived
// from the caller and the symbol.
func (n *Node) CreateLaunch(ctx context.Context, caller [20]byte, params launchpad.CreateLaunchParams) (*launchpad.Launch, error) {
	var launch *launchpad.Launch
	err := n.apply(ctx, "launch_create", func(*state.Manager) error {
		mint := n.launches.MintAddress(caller, params.Symbol)
		created, err := n.launches.CreateLaunch(caller, mint, params)
		if err != nil {
			return err
		}
		launch = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return launch, nil
}

// Purchase settles a buy against a launch, including any affiliate commission.
func (n *Node) Purchase(ctx context.Context, req launchpad.PurchaseRequest) (*launchpad.PurchaseResult, error) {
	var result *launchpad.PurchaseResult
	err := n.apply(ctx, "launch_purchase", func(*state.Manager) error {
		res, err := n.launches.Purchase(req)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	n.metrics.RecordPurchase(result.Units, result.Commission)
	return result, nil
}

// Withdraw moves the launch vault to its authority.
func (n *Node) Withdraw(ctx context.Context, caller, launchAddr [20]byte) (uint64, error) {
	var amount uint64
	err := n.apply(ctx, "launch_withdraw", func(*state.Manager) error {
		withdrawn, err := n.launches.Withdraw(caller, launchAddr)
		amount = withdrawn
		return err
	})
	if err != nil {
		return 0, err
	}
	return amount, nil
}

// UpdateLaunch changes the mutable launch parameters.
func (n *Node) UpdateLaunch(ctx context.Context, caller, launchAddr [20]byte, params launchpad.UpdateLaunchParams) (*launchpad.Launch, error) {
	var launch *launchpad.Launch
	err := n.apply(ctx, "launch_update", func(*state.Manager) error {
		updated, err := n.launches.UpdateLaunch(caller, launchAddr, params)
		launch = updated
		return err
	})
	if err != nil {
		return nil, err
	}
	return launch, nil
}

// ClaimVested releases the vested units of the beneficiary's schedule.
func (n *Node) ClaimVested(ctx context.Context, beneficiary, launchAddr [20]byte) (uint64, error) {
	var amount uint64
	err := n.apply(ctx, "launch_claim_vested", func(*state.Manager) error {
		claimed, err := n.launches.ClaimVested(beneficiary, launchAddr)
		amount = claimed
		return err
	})
	if err != nil {
		return 0, err
	}
	return amount, nil
}

func (n *Node) Launch(addr [20]byte) (*launchpad.Launch, error) {
	var launch *launchpad.Launch
	err := n.view(func(*state.Manager) error {
		var err error
		launch, err = n.launches.Launch(addr)
		return err
	})
	return launch, err
}

// Launches lists every launch in creation order.
func (n *Node) Launches() ([]*launchpad.Launch, error) {
	var out []*launchpad.Launch
	err := n.view(func(manager *state.Manager) error {
		addrs, err := manager.Launches()
		if err != nil {
			return err
		}
		out = make([]*launchpad.Launch, 0, len(addrs))
		for _, addr := range addrs {
			launch, err := n.launches.Launch(addr)
			if err != nil {
				return err
			}
			out = append(out, launch)
		}
		return nil
	})
	return out, err
}

func (n *Node) Vesting(launchAddr, beneficiary [20]byte) (*launchpad.VestingSchedule, error) {
	var schedule *launchpad.VestingSchedule
	err := n.view(func(*state.Manager) error {
		var err error
		schedule, err = n.launches.Vesting(launchAddr, beneficiary)
		return err
	})
	return schedule, err
}

// LaunchPrice returns the price of the next unit of the launch.
func (n *Node) LaunchPrice(launchAddr [20]byte) (uint64, error) {
	var price uint64
	err := n.view(func(*state.Manager) error {
		var err error
		price, err = n.launches.CurrentPrice(launchAddr)
		return err
	})
	return price, err
}

// LaunchPriceAt returns the price of unit index idx of the launch.
func (n *Node) LaunchPriceAt(launchAddr [20]byte, idx uint64) (uint64, error) {
	var price uint64
	err := n.view(func(*state.Manager) error {
		var err error
		price, err = n.launches.PriceAt(launchAddr, idx)
		return err
	})
	return price, err
}

// QuotePurchase prices a payment against the current curve position without
// changing state.
func (n *Node) QuotePurchase(launchAddr [20]byte, payment uint64) (pricing.Quote, error) {
	var quote pricing.Quote
	err := n.view(func(*state.Manager) error {
		var err error
		quote, err = n.launches.QuotePurchase(launchAddr, payment)
		return err
	})
	return quote, err
}

func (n *Node) VaultBalance(launchAddr [20]byte) (uint64, error) {
	var balance uint64
	err := n.view(func(*state.Manager) error {
		var err error
		balance, err = n.launches.VaultBalance(launchAddr)
		return err
	})
	return balance, err
}
