package core

import (
	"context"

	"launchpad/core/state"
	"launchpad/native/affiliate"
)

// RegisterAffiliate creates the caller's affiliate record.
func (n *Node) RegisterAffiliate(ctx context.Context, caller [20]byte, params affiliate.RegisterParams) (*affiliate.Affiliate, error) {
	var record *affiliate.Affiliate
	err := n.apply(ctx, "affiliate_register", func(*state.Manager) error {
		registered, err := n.affiliates.Register(caller, params)
		record = registered
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// SetAffiliateRate replaces the caller's commission rate.
func (n *Node) SetAffiliateRate(ctx context.Context, caller [20]byte, rateBps uint16) (*affiliate.Affiliate, error) {
	var record *affiliate.Affiliate
	err := n.apply(ctx, "affiliate_set_rate", func(*state.Manager) error {
		updated, err := n.affiliates.SetCommissionRate(caller, rateBps)
		record = updated
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// UpdateAffiliateRate changes the caller's rate subject to its caps and the
// update interval.
func (n *Node) UpdateAffiliateRate(ctx context.Context, caller [20]byte, rateBps uint16) (*affiliate.Affiliate, error) {
	var record *affiliate.Affiliate
	err := n.apply(ctx, "affiliate_update_rate", func(*state.Manager) error {
		updated, err := n.affiliates.UpdateCommissionRate(caller, rateBps)
		record = updated
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// RecordAffiliateClicks adds a click report to the caller's analytics.
func (n *Node) RecordAffiliateClicks(ctx context.Context, caller [20]byte, clicks uint32) (*affiliate.Affiliate, error) {
	var record *affiliate.Affiliate
	err := n.apply(ctx, "affiliate_record_clicks", func(*state.Manager) error {
		updated, err := n.affiliates.RecordClicks(caller, clicks)
		record = updated
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (n *Node) Affiliate(key [20]byte) (*affiliate.Affiliate, error) {
	var record *affiliate.Affiliate
	err := n.view(func(*state.Manager) error {
		var err error
		record, err = n.affiliates.Lookup(key)
		return err
	})
	return record, err
}

// SuggestedAffiliateRate returns the tier based rate suggestion for key.
func (n *Node) SuggestedAffiliateRate(key [20]byte) (uint16, *affiliate.Affiliate, error) {
	var (
		rate   uint16
		record *affiliate.Affiliate
	)
	err := n.view(func(*state.Manager) error {
		var err error
		rate, record, err = n.affiliates.SuggestedRate(key)
		return err
	})
	return rate, record, err
}
