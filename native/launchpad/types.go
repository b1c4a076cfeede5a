package launchpad

// Launch is the persisted sale ledger for one issued asset. Curve parameters
// and the authority never change after creation; UnitsSold only grows.
type Launch struct {
	Address         [20]byte
	Authority       [20]byte
	Mint            [20]byte
	Vault           [20]byte
	InitialPrice    uint64
	Slope           uint64
	UnitsSold       uint64
	StartTime       uint64
	EndTime         uint64
	MinPayment      uint64
	MaxPayment      uint64
	VestingEnabled  bool
	VestingDuration uint64
	VestingCliff    uint64
	TotalCollected  uint64
	PurchaseCount   uint64
	LastPurchaseAt  uint64
	CreatedAt       uint64
}

// Clone returns a copy of the ledger.
func (l *Launch) Clone() *Launch {
	if l == nil {
		return nil
	}
	clone := *l
	return &clone
}

// VestingSchedule tracks units minted into a program controlled account on
// behalf of a buyer and released linearly after the cliff.
type VestingSchedule struct {
	Launch      [20]byte
	Beneficiary [20]byte
	Account     [20]byte
	Total       uint64
	Claimed     uint64
	StartTime   uint64
	Cliff       uint64
	Duration    uint64
}

// Clone returns a copy of the schedule.
func (v *VestingSchedule) Clone() *VestingSchedule {
	if v == nil {
		return nil
	}
	clone := *v
	return &clone
}

// CreateLaunchParams configures a new sale. Zero times and bounds mean open.
type CreateLaunchParams struct {
	Symbol          string
	Decimals        uint8
	InitialPrice    uint64
	Slope           uint64
	StartTime       uint64
	EndTime         uint64
	MinPayment      uint64
	MaxPayment      uint64
	VestingEnabled  bool
	VestingDuration uint64
	VestingCliff    uint64
}

// UpdateLaunchParams carries the mutable launch fields. Nil fields are left
// unchanged.
type UpdateLaunchParams struct {
	EndTime    *uint64
	MinPayment *uint64
	MaxPayment *uint64
}

// PurchaseRequest describes a buy against a launch.
type PurchaseRequest struct {
	Buyer     [20]byte
	Launch    [20]byte
	Payment   uint64
	Affiliate *[20]byte
	Vest      bool
}

// PurchaseResult reports the outcome of a settled purchase.
type PurchaseResult struct {
	Units       uint64
	Cost        uint64
	Commission  uint64
	UnitsSold   uint64
	PriceBefore uint64
	PriceAfter  uint64
	Vested      bool
}
