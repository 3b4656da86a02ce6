// Package rebalance implements the RebalancingEngine: a pure function
// from (current price, volatility, total liquidity) to a proposed
// range layout, plus the validation and scoring routines the pool
// engine and orchestrator use before and after applying a proposal.
//
// Grounded on the teacher's regime-to-weights mapping
// (internal/domain/regime/weights.go: a fixed table keyed by regime,
// looked up and applied deterministically) and the routing/quote math
// in the pack's amm.go reference file (constant-product style output
// sizing) for the proximity-weighted liquidity allocation below.
package rebalance

import (
	"sort"

	"github.com/google/uuid"
	"github.com/seltra-labs/amm-core/internal/errs"
	"github.com/seltra-labs/amm-core/internal/fixedpoint"
	"github.com/seltra-labs/amm-core/internal/oracle"
)

const (
	// MinRangeSize is the minimum relative range size, in basis points
	// of the lower bound, a proposed range must satisfy.
	MinRangeSize = 50

	// liquidityTolerance bounds the allowed rounding drift between a
	// proposal's total liquidity and the pool's total, in basis
	// points (0.1% == 10 bps).
	liquidityTolerance = 10

	proximityBase = 10_000
	proximityMax  = 15_000
)

// tierParams is one row of the volatility-tier table.
type tierParams struct {
	upperBound          uint64 // exclusive upper bound, scale V; 0 means unbounded (last tier)
	concentrationFactor uint64 // scale V
	numRanges           int
}

var tiers = []tierParams{
	{upperBound: 15_000, concentrationFactor: 4_000, numRanges: 2},
	{upperBound: 30_000, concentrationFactor: 6_000, numRanges: 3},
	{upperBound: 60_000, concentrationFactor: 10_000, numRanges: 4},
	{upperBound: 120_000, concentrationFactor: 18_000, numRanges: 5},
	{upperBound: 0, concentrationFactor: 25_000, numRanges: 6}, // Extreme, unbounded
}

func tierFor(volatility uint64) tierParams {
	for _, t := range tiers {
		if t.upperBound == 0 || volatility < t.upperBound {
			return t
		}
	}
	return tiers[len(tiers)-1]
}

// Range is one proposed liquidity range, prior to being accepted by
// the pool as a LiquidityRange.
type Range struct {
	PriceLower uint64
	PriceUpper uint64
	Liquidity  uint64
}

// Proposal is a candidate rebalance, produced by Propose and consumed
// by the pool's ApplyRebalance.
type Proposal struct {
	ProposalID       string
	ProposedRanges   []Range
	TriggerVolatility uint64
	EfficiencyScore  uint64
	CreatedAt        uint64
}

// Engine is the RebalancingEngine. It holds no mutable state: Propose,
// Validate, and Score are pure functions of their arguments.
type Engine struct {
	// secondaryCooldown, when non-zero, is a defensive cooldown the
	// engine may enforce in addition to the oracle's authoritative
	// one. Per spec.md §9 the engine must never relax the oracle's
	// decision, only potentially add a stricter check.
	secondaryCooldown uint64
}

// New constructs a RebalancingEngine with no secondary cooldown.
func New() *Engine {
	return &Engine{}
}

// WithSecondaryCooldown sets a defensive cooldown (seconds) the engine
// enforces on top of whatever the oracle already decided.
func (e *Engine) WithSecondaryCooldown(seconds uint64) *Engine {
	e.secondaryCooldown = seconds
	return e
}

// Propose derives a range layout deterministically from the current
// price, volatility, and total liquidity to redistribute.
func (e *Engine) Propose(currentPrice, volatility, totalLiquidity uint64, now uint64) (*Proposal, error) {
	if currentPrice == 0 {
		return nil, errs.New(errs.InvalidParams, "current_price must be positive")
	}

	tier := tierFor(volatility)

	// half-span = min(price/2, concentration_factor/V * price), computed
	// directly rather than through an intermediate whole-percent value:
	// flooring concentration_factor/V to a percent collapses the span to
	// zero for every tier below Extreme.
	halfSpan, err := fixedpoint.MulDiv(currentPrice, tier.concentrationFactor, fixedpoint.ScaleV)
	if err != nil {
		return nil, errs.New(errs.InternalError, "half-span: %v", err)
	}
	if halfSpan > currentPrice/2 {
		halfSpan = currentPrice / 2
	}
	if halfSpan == 0 {
		halfSpan = 1
	}
	if halfSpan >= currentPrice {
		halfSpan = currentPrice - 1
	}

	minPrice := currentPrice - halfSpan
	maxPrice := currentPrice + halfSpan

	// concentrationBps is the half-span expressed directly in basis
	// points; stepBps is each bucket's target share of the full span.
	// Buckets are built outward from minPrice with a width that is
	// ceil-rounded against each bucket's OWN lower bound, rather than a
	// single absolute step shared by every bucket: an absolute step is
	// a shrinking relative width for buckets further from minPrice,
	// which can push the highest-price bucket below MinRangeSize even
	// when the span itself is sized correctly. Ceiling the width
	// guarantees every bucket's relative size is at least stepBps.
	concentrationBps, err := fixedpoint.MulDiv(tier.concentrationFactor, fixedpoint.ScaleR, fixedpoint.ScaleV)
	if err != nil {
		return nil, errs.New(errs.InternalError, "concentration bps: %v", err)
	}
	stepBps := (2 * concentrationBps) / uint64(tier.numRanges)
	if stepBps == 0 {
		return nil, errs.New(errs.InternalError, "degenerate step size")
	}

	type bucket struct {
		lower, upper, weight uint64
	}
	buckets := make([]bucket, tier.numRanges)
	weights := make([]uint64, tier.numRanges)
	totalWeight := uint64(0)

	lower := minPrice
	for i := 0; i < tier.numRanges; i++ {
		width, err := fixedpoint.CeilMulDiv(lower, stepBps, fixedpoint.ScaleR)
		if err != nil {
			return nil, errs.New(errs.InternalError, "bucket width: %v", err)
		}
		if width == 0 {
			width = 1
		}
		upper := lower + width
		if i == tier.numRanges-1 && upper < maxPrice {
			upper = maxPrice // never shrink the last bucket below its ceil-rounded width
		}
		center := (lower + upper) / 2
		var distance uint64
		if center >= currentPrice {
			distance = center - currentPrice
		} else {
			distance = currentPrice - center
		}
		if distance > halfSpan {
			distance = halfSpan
		}
		bump, err := fixedpoint.MulDiv(halfSpan-distance, 5_000, halfSpan)
		if err != nil {
			return nil, errs.New(errs.InternalError, "proximity weight: %v", err)
		}
		weight := proximityBase + bump
		if weight > proximityMax {
			weight = proximityMax
		}
		buckets[i] = bucket{lower: lower, upper: upper, weight: weight}
		weights[i] = weight
		totalWeight += weight
		lower = upper
	}

	ranges := make([]Range, tier.numRanges)
	allocated := uint64(0)
	for i, b := range buckets {
		if i == tier.numRanges-1 {
			// residual adjustment so the sum is exact.
			ranges[i] = Range{PriceLower: b.lower, PriceUpper: b.upper, Liquidity: totalLiquidity - allocated}
			continue
		}
		liq, err := fixedpoint.MulDiv(totalLiquidity, b.weight, totalWeight)
		if err != nil {
			return nil, errs.New(errs.InternalError, "liquidity allocation: %v", err)
		}
		ranges[i] = Range{PriceLower: b.lower, PriceUpper: b.upper, Liquidity: liq}
		allocated += liq
	}

	score, err := e.Score(ranges, currentPrice, volatility)
	if err != nil {
		return nil, err
	}

	return &Proposal{
		ProposalID:        uuid.NewString(),
		ProposedRanges:    ranges,
		TriggerVolatility: volatility,
		EfficiencyScore:   score,
		CreatedAt:         now,
	}, nil
}

// Validate checks a proposal against the old range set's total
// liquidity and the structural rules: conservation (within 0.1%
// tolerance), non-degenerate geometry, minimum range size, and sorted
// non-overlapping ranges.
func (e *Engine) Validate(oldTotalLiquidity uint64, proposed []Range) (efficiencyGain uint64, err error) {
	if len(proposed) == 0 {
		return 0, errs.New(errs.InvalidProposal, "empty proposal")
	}

	sorted := make([]Range, len(proposed))
	copy(sorted, proposed)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].PriceLower < sorted[j].PriceLower })
	for i := range sorted {
		if sorted[i] != proposed[i] {
			return 0, errs.New(errs.InvalidProposal, "ranges not sorted by price_lower")
		}
	}

	var total uint64
	for i, r := range proposed {
		if r.PriceLower == 0 || r.PriceUpper <= r.PriceLower {
			return 0, errs.New(errs.InvalidRange, "range %d has lower>=upper or zero lower", i)
		}
		if r.Liquidity == 0 {
			return 0, errs.New(errs.InvalidRange, "range %d has zero liquidity", i)
		}
		sizeBps, err := fixedpoint.MulDiv(r.PriceUpper-r.PriceLower, fixedpoint.ScaleR, r.PriceLower)
		if err != nil {
			return 0, errs.New(errs.InternalError, "range %d size calc: %v", i, err)
		}
		if sizeBps < MinRangeSize {
			return 0, errs.New(errs.InvalidRange, "range %d size %d bps below minimum %d", i, sizeBps, MinRangeSize)
		}
		if i > 0 && r.PriceLower < proposed[i-1].PriceUpper {
			return 0, errs.New(errs.InvalidRange, "range %d overlaps range %d", i, i-1)
		}
		total += r.Liquidity
	}

	if !withinTolerance(total, oldTotalLiquidity, liquidityTolerance) {
		return 0, errs.New(errs.InvalidProposal, "total liquidity %d does not match %d within tolerance", total, oldTotalLiquidity)
	}

	// efficiencyGain is reported informationally and is always the
	// constant proximityBase; it is not computed from the proposal.
	// Score evaluates a layout against actual trigger conditions.
	return proximityBase, nil
}

func withinTolerance(got, want uint64, toleranceBps uint64) bool {
	if want == 0 {
		return got == 0
	}
	var diff uint64
	if got >= want {
		diff = got - want
	} else {
		diff = want - got
	}
	deltaBps, err := fixedpoint.MulDiv(diff, fixedpoint.ScaleR, want)
	if err != nil {
		return false
	}
	return deltaBps <= toleranceBps
}

// Score computes a liquidity-weighted proximity score in [0, 10000]:
// 10000 when a range's center sits within current_price*volatility/5000
// of the current price (roughly 2 standard deviations), decaying
// linearly beyond that band.
func (e *Engine) Score(ranges []Range, currentPrice, volatility uint64) (uint64, error) {
	if len(ranges) == 0 {
		return 0, errs.New(errs.InvalidParams, "no ranges to score")
	}

	band, err := fixedpoint.MulDiv(currentPrice, volatility, 5_000)
	if err != nil {
		return 0, errs.New(errs.InternalError, "score band calc: %v", err)
	}
	if band == 0 {
		band = 1
	}

	var weightedSum, totalLiquidity uint64
	for _, r := range ranges {
		center := (r.PriceLower + r.PriceUpper) / 2
		var distance uint64
		if center >= currentPrice {
			distance = center - currentPrice
		} else {
			distance = currentPrice - center
		}

		var proximity uint64
		if distance <= band {
			proximity = proximityBase
		} else {
			beyond := distance - band
			decay, err := fixedpoint.MulDiv(beyond, proximityBase, band*4)
			if err != nil {
				decay = proximityBase
			}
			if decay >= proximityBase {
				proximity = 0
			} else {
				proximity = proximityBase - decay
			}
		}

		weightedSum += proximity * r.Liquidity
		totalLiquidity += r.Liquidity
	}

	if totalLiquidity == 0 {
		return 0, nil
	}
	return weightedSum / totalLiquidity, nil
}

// RebalanceTooSoon reports whether the engine's own secondary cooldown
// (if configured) blocks a rebalance at `now`. It never overrides a
// decision the oracle already made to allow a rebalance: the
// orchestrator must call Oracle.ShouldRebalance first and only
// consult this as an additional defensive check.
func (e *Engine) RebalanceTooSoon(lastRebalanceTime, now uint64) bool {
	if e.secondaryCooldown == 0 {
		return false
	}
	if now <= lastRebalanceTime {
		return true
	}
	return now-lastRebalanceTime < e.secondaryCooldown
}

// RegimeOf is a convenience re-export so callers needn't import
// oracle just to classify a volatility scalar.
func RegimeOf(volatility uint64) oracle.Regime {
	return oracle.ClassifyRegime(volatility)
}
