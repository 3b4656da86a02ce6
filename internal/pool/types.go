package pool

import "github.com/seltra-labs/amm-core/internal/errs"

// AssetPair identifies the two assets a pool trades, x<y by
// convention (as in spec.md §3). The zero value is never valid: use
// NewAssetPair.
type AssetPair struct {
	AssetX uint32
	AssetY uint32
}

// NewAssetPair validates x != y and returns the pair ordered x<y.
func NewAssetPair(a, b uint32) (AssetPair, error) {
	if a == b {
		return AssetPair{}, errs.New(errs.InvalidAsset, "asset_x_id must differ from asset_y_id")
	}
	if a < b {
		return AssetPair{AssetX: a, AssetY: b}, nil
	}
	return AssetPair{AssetX: b, AssetY: a}, nil
}

// RangeSpec is the plain-data shape ApplyRebalance and InitPool accept
// for a candidate range — deliberately decoupled from the rebalance
// package's Proposal type so PoolEngine never imports or holds a
// reference to RebalancingEngine (design notes: "no component holds a
// reference to another").
type RangeSpec struct {
	PriceLower uint64
	PriceUpper uint64
	Liquidity  uint64
}

// LiquidityRange is one active or frozen price bucket owned
// exclusively by PoolState.
type LiquidityRange struct {
	RangeID   string
	PriceLower uint64
	PriceUpper uint64
	Liquidity  uint64 // also the range's LP-token supply
	Active     bool

	ReserveX uint64
	ReserveY uint64

	FeesAccruedX uint64
	FeesAccruedY uint64

	// feeGrowthGlobalX/Y are scaled by feeGrowthScale and divided by
	// Liquidity at each accrual, the standard "fee growth per unit of
	// liquidity" pattern: a position snapshots this value at entry and
	// is credited the delta on every subsequent interaction.
	feeGrowthGlobalX uint64
	feeGrowthGlobalY uint64
}

const feeGrowthScale = 1_000_000_000_000_000_000 // scale P

// positionKey is the composite (owner, range_id) identity of an
// LpPosition.
type positionKey struct {
	owner   string
	rangeID string
}

// LpPosition is one owner's stake in one range.
type LpPosition struct {
	Owner   string
	RangeID string
	LpTokens uint64

	feeGrowthInsideXLast uint64
	feeGrowthInsideYLast uint64
	unclaimedX           uint64
	unclaimedY           uint64
}

// poolOwner is the synthetic owner of LP tokens minted for ranges
// created by a rebalance rather than by a user's add_liquidity call.
// The rationale: rebalances replace the active range
// set wholesale, and migrating every individual LP position into the
// new geometry precisely is out of scope for this simplified model;
// existing positions remain fully redeemable against their original
// (now frozen) range.
const poolOwner = "__pool__"

// Snapshot is the read-only view exposed to observers.
type Snapshot struct {
	Pair              AssetPair
	CurrentPrice      uint64
	FeeRateBps        uint64
	TotalLiquidity    uint64
	LastRebalanceTime uint64
	ProtocolFeesX     uint64
	ProtocolFeesY     uint64
	Ranges            []RangeView
}

// RangeView is the read-only view of one range.
type RangeView struct {
	RangeID      string
	PriceLower   uint64
	PriceUpper   uint64
	Liquidity    uint64
	Active       bool
	ReserveX     uint64
	ReserveY     uint64
	FeesAccruedX uint64
	FeesAccruedY uint64
}

// PositionView is the read-only view of one LP position returned by
// ListPositions.
type PositionView struct {
	RangeID         string
	LpTokens        uint64
	UnclaimedFeesX  uint64
	UnclaimedFeesY  uint64
}
