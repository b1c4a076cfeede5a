package state

import (
	"fmt"

	"launchpad/native/affiliate"
)

// AffiliateGet loads the registry entry stored at addr.
func (m *Manager) AffiliateGet(addr [20]byte) (*affiliate.Affiliate, bool, error) {
	return getRecord[affiliate.Affiliate](m, prefixed(affiliatePrefix, addr[:]))
}

// AffiliatePut stores a registry entry at addr.
func (m *Manager) AffiliatePut(addr [20]byte, record *affiliate.Affiliate) error {
	if record == nil {
		return fmt.Errorf("affiliate: nil record")
	}
	return putIndexed(m, affiliatePrefix, affiliateIndexKey, addr, record)
}

// Affiliates returns the record address of every registered affiliate.
func (m *Manager) Affiliates() ([][20]byte, error) {
	return m.addressIndex(affiliateIndexKey)
}
