// Package fees implements the FeeManager: a pure function of
// volatility, recent volume, liquidity, trade size, and an optional
// trader tier to a (total, protocol) basis-point split.
//
// Grounded on the teacher's gates/thresholds.go clamp-and-schedule
// style (fixed tables looked up by a discrete key, then clamped into a
// documented range) adapted to the spec's left-to-right scaled-integer
// fee formula.
package fees

import (
	"github.com/seltra-labs/amm-core/internal/errs"
	"github.com/seltra-labs/amm-core/internal/fixedpoint"
)

// Defaults, all in basis points (scale R) unless noted.
const (
	DefaultBaseFeeBps         = 30
	DefaultMinFeeBps          = 5
	DefaultMaxFeeBps          = 300
	DefaultProtocolShareBps   = 1_000
	DefaultVolatilityMultiplier = 500 // tunable sensitivity, scale R-ish integer multiplier
	DefaultVolumeThreshold    = 1_000_000 // volume_24h units at which discount saturates
	DefaultVolumeDiscountFactor = 5_000   // bps, max proportion of vol_ratio applied as discount
	liquidityPenaltyThresholdBps = 1_000  // 10% of liquidity
	maxLiquidityPenaltyBps       = 2_000
)

// TierDiscount is one entry of the fixed trader-tier discount
// schedule. Present only when the caller supplies a tier; absence
// must not affect fee computation (spec.md §4.4).
type TierDiscount struct {
	Tier        int
	DiscountBps uint64 // 0..2000
}

// DefaultTierSchedule is the fixed trader-tier discount table. Tier 0
// is "no tier" and carries no discount.
var DefaultTierSchedule = map[int]uint64{
	0: 0,
	1: 250,
	2: 750,
	3: 1_500,
	4: 2_000,
}

// Manager is the FeeManager. It is stateless across calls except for
// the optional volume-observer hook, which never gates compute_fee's
// correctness when unset.
type Manager struct {
	baseFeeBps           uint64
	minFeeBps            uint64
	maxFeeBps            uint64
	protocolShareBps     uint64
	volatilityMultiplier uint64
	volumeThreshold      uint64
	volumeDiscountFactor uint64
	tierSchedule         map[int]uint64

	onTrade func(traderID string, amount uint64)
}

// New constructs a FeeManager with the documented defaults.
func New() *Manager {
	return &Manager{
		baseFeeBps:           DefaultBaseFeeBps,
		minFeeBps:            DefaultMinFeeBps,
		maxFeeBps:            DefaultMaxFeeBps,
		protocolShareBps:     DefaultProtocolShareBps,
		volatilityMultiplier: DefaultVolatilityMultiplier,
		volumeThreshold:      DefaultVolumeThreshold,
		volumeDiscountFactor: DefaultVolumeDiscountFactor,
		tierSchedule:         DefaultTierSchedule,
	}
}

// WithVolumeObserver registers an optional hook invoked by ObserveTrade
// for every trade it records, e.g. to feed a persistent rolling-volume
// store. ComputeFee never calls it, and its result never depends on
// whether this hook is set.
func (m *Manager) WithVolumeObserver(fn func(traderID string, amount uint64)) *Manager {
	m.onTrade = fn
	return m
}

// ComputeFee evaluates the fee formula left to right in scaled integer
// math and returns (totalBps, protocolBps), both clamped into
// [minFeeBps, maxFeeBps] for the total, with the protocol share
// derived from the clamped total.
func (m *Manager) ComputeFee(volatility, volume24h, liquidity, tradeSize uint64, traderTier *int) (totalBps, protocolBps uint64, err error) {
	if liquidity == 0 {
		return 0, 0, errs.New(errs.InvalidParams, "liquidity must be positive")
	}

	// 1. vol_bump = base_fee * (volatility * volatility_multiplier) / V^2
	volTerm, err := fixedpoint.MulDiv(volatility, m.volatilityMultiplier, fixedpoint.ScaleV)
	if err != nil {
		return 0, 0, errs.New(errs.InternalError, "vol term: %v", err)
	}
	volBump, err := fixedpoint.MulDiv(m.baseFeeBps, volTerm, fixedpoint.ScaleV)
	if err != nil {
		return 0, 0, errs.New(errs.InternalError, "vol bump: %v", err)
	}

	// 2. fee_after_vol = base_fee + vol_bump
	feeAfterVol := m.baseFeeBps + volBump

	// 3. vol_ratio = min(volume_24h * R / volume_threshold, 5000)
	volRatio, err := fixedpoint.MulDiv(volume24h, fixedpoint.ScaleR, m.volumeThreshold)
	if err != nil {
		return 0, 0, errs.New(errs.InternalError, "vol ratio: %v", err)
	}
	if volRatio > 5_000 {
		volRatio = 5_000
	}

	// 4. vol_discount = vol_ratio * volume_discount_factor / R
	volDiscount, err := fixedpoint.MulDiv(volRatio, m.volumeDiscountFactor, fixedpoint.ScaleR)
	if err != nil {
		return 0, 0, errs.New(errs.InternalError, "vol discount: %v", err)
	}
	if volDiscount > fixedpoint.ScaleR {
		volDiscount = fixedpoint.ScaleR
	}

	// 5. fee_after_volume = fee_after_vol * (R - vol_discount) / R
	feeAfterVolume, err := fixedpoint.MulDiv(feeAfterVol, fixedpoint.ScaleR-volDiscount, fixedpoint.ScaleR)
	if err != nil {
		return 0, 0, errs.New(errs.InternalError, "fee after volume: %v", err)
	}

	// 6. liquidity penalty: trade_size * R / liquidity > 1000 -> 10%
	fee := feeAfterVolume
	tradeRatioBps, err := fixedpoint.MulDiv(tradeSize, fixedpoint.ScaleR, liquidity)
	if err != nil {
		return 0, 0, errs.New(errs.InternalError, "trade ratio: %v", err)
	}
	if tradeRatioBps > liquidityPenaltyThresholdBps {
		excess := tradeRatioBps - liquidityPenaltyThresholdBps
		if excess > maxLiquidityPenaltyBps {
			excess = maxLiquidityPenaltyBps
		}
		fee, err = fixedpoint.MulDiv(fee, fixedpoint.ScaleR+excess, fixedpoint.ScaleR)
		if err != nil {
			return 0, 0, errs.New(errs.InternalError, "liquidity penalty: %v", err)
		}
	}

	// 7. optional trader tier discount
	if traderTier != nil {
		discount, ok := m.tierSchedule[*traderTier]
		if ok && discount > 0 {
			if discount > fixedpoint.ScaleR {
				discount = fixedpoint.ScaleR
			}
			fee, err = fixedpoint.MulDiv(fee, fixedpoint.ScaleR-discount, fixedpoint.ScaleR)
			if err != nil {
				return 0, 0, errs.New(errs.InternalError, "tier discount: %v", err)
			}
		}
	}

	// 8. clamp
	if fee < m.minFeeBps {
		fee = m.minFeeBps
	}
	if fee > m.maxFeeBps {
		fee = m.maxFeeBps
	}

	protocol, err := fixedpoint.MulDiv(fee, m.protocolShareBps, fixedpoint.ScaleR)
	if err != nil {
		return 0, 0, errs.New(errs.InternalError, "protocol split: %v", err)
	}

	return fee, protocol, nil
}

// ObserveTrade invokes the optional volume observer, if registered. It
// is a no-op otherwise; ComputeFee never calls this itself, it is the
// orchestrator's responsibility to call it after a successful swap.
func (m *Manager) ObserveTrade(traderID string, amount uint64) {
	if m.onTrade != nil {
		m.onTrade(traderID, amount)
	}
}
