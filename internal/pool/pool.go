// Package pool implements the PoolEngine: the stateful core that owns
// one asset pair's range set, LP positions, and current price, and
// executes add_liquidity, remove_liquidity, quote_swap, swap, and
// apply_rebalance.
//
// Grounded on the pack's amm.go reference file for the swap-formula
// shape (constant-product quoting, fee deducted before the output
// computation) and on the teacher's internal/domain/regime/detector.go
// for the "struct holding config plus a mutable cache of derived
// state, all mutation behind methods with an Init guard" idiom that
// every stateful component in this module follows.
package pool

import (
	"sort"

	"github.com/google/uuid"
	"github.com/seltra-labs/amm-core/internal/errs"
	"github.com/seltra-labs/amm-core/internal/fixedpoint"
)

// MinLiquidity is burned (attributed to no position) on a range's
// genesis deposit, guarding against the first-depositor share-price
// manipulation classic to constant-product pools.
const MinLiquidity = 1_000

// minRangeSizeBps mirrors rebalance.MinRangeSize. Duplicated rather
// than imported: PoolEngine does not depend on the rebalance package,
// so a rebalance proposal is accepted here as a plain []RangeSpec.
const minRangeSizeBps = 50

// liquidityToleranceBps mirrors rebalance.liquidityTolerance.
const liquidityToleranceBps = 10

// DefaultFeeRateBps is the fee rate quote_swap reports absent a
// fresher value supplied by the caller of swap.
const DefaultFeeRateBps = 30

// Engine is the PoolEngine for exactly one asset pair. It holds no
// reference to any other component: FeeManager, RebalancingEngine, and
// VolatilityOracle outputs are threaded in by the caller (the
// orchestrator), never looked up internally.
type Engine struct {
	initialized bool

	pair         AssetPair
	currentPrice uint64
	feeRateBps   uint64

	ranges   []*LiquidityRange
	rangeIdx map[string]*LiquidityRange

	positions map[positionKey]*LpPosition

	protocolFeesX uint64
	protocolFeesY uint64

	lastRebalanceTime uint64
}

// New constructs an uninitialized Engine. Every operation but InitPool
// fails with errs.NotInitialized until InitPool succeeds.
func New() *Engine {
	return &Engine{
		rangeIdx:  make(map[string]*LiquidityRange),
		positions: make(map[positionKey]*LpPosition),
	}
}

// InitPool seeds the pool with an asset pair, a starting price, a fee
// rate, and an initial set of ranges (sorted ascending by
// price_lower, non-overlapping, each at least minRangeSizeBps wide).
// Each range's liquidity is minted to owner as an LpPosition, subject
// to MinLiquidity being burned on each range's first deposit.
func (e *Engine) InitPool(pair AssetPair, initialPrice uint64, feeRateBps uint64, owner string, initial []RangeSpec) error {
	if e.initialized {
		return errs.New(errs.AlreadyInitialized, "pool already initialized")
	}
	if initialPrice == 0 {
		return errs.New(errs.InvalidParams, "initial_price must be positive")
	}
	if len(initial) == 0 {
		return errs.New(errs.InvalidParams, "at least one initial range is required")
	}
	if owner == "" {
		return errs.New(errs.InvalidParams, "owner is required")
	}

	if err := validateGeometry(initial); err != nil {
		return err
	}

	ranges := make([]*LiquidityRange, len(initial))
	positions := make(map[positionKey]*LpPosition, len(initial))
	for i, spec := range initial {
		lr := &LiquidityRange{
			RangeID:    uuid.NewString(),
			PriceLower: spec.PriceLower,
			PriceUpper: spec.PriceUpper,
			Active:     true,
		}
		minted, err := genesisMint(spec.Liquidity, spec.Liquidity)
		if err != nil {
			return err
		}
		lr.Liquidity = minted + MinLiquidity
		lr.ReserveX = spec.Liquidity
		lr.ReserveY = spec.Liquidity
		ranges[i] = lr
		positions[positionKey{owner: owner, rangeID: lr.RangeID}] = &LpPosition{
			Owner: owner, RangeID: lr.RangeID, LpTokens: minted,
		}
	}

	e.pair = pair
	e.currentPrice = initialPrice
	e.feeRateBps = feeRateBps
	e.ranges = ranges
	e.rangeIdx = make(map[string]*LiquidityRange, len(ranges))
	for _, r := range ranges {
		e.rangeIdx[r.RangeID] = r
	}
	e.positions = positions
	e.initialized = true
	return nil
}

func genesisMint(amountX, amountY uint64) (uint64, error) {
	product, err := fixedpoint.MulDiv(amountX, amountY, 1)
	if err != nil {
		return 0, errs.New(errs.InternalError, "genesis mint: %v", err)
	}
	minted := fixedpoint.Sqrt(product)
	if minted <= MinLiquidity {
		return 0, errs.New(errs.InvalidParams, "initial deposit too small to exceed minimum liquidity floor")
	}
	return minted - MinLiquidity, nil
}

func validateGeometry(specs []RangeSpec) error {
	for i, s := range specs {
		if s.PriceLower == 0 || s.PriceUpper <= s.PriceLower {
			return errs.New(errs.InvalidRange, "range %d has lower>=upper or zero lower", i)
		}
		if s.Liquidity == 0 {
			return errs.New(errs.InvalidRange, "range %d has zero liquidity", i)
		}
		sizeBps, err := fixedpoint.MulDiv(s.PriceUpper-s.PriceLower, fixedpoint.ScaleR, s.PriceLower)
		if err != nil {
			return errs.New(errs.InternalError, "range %d size calc: %v", i, err)
		}
		if sizeBps < minRangeSizeBps {
			return errs.New(errs.InvalidRange, "range %d size %d bps below minimum", i, sizeBps)
		}
		if i > 0 {
			if s.PriceLower < specs[i-1].PriceUpper {
				return errs.New(errs.InvalidRange, "range %d overlaps range %d", i, i-1)
			}
			if s.PriceLower <= specs[i-1].PriceLower {
				return errs.New(errs.InvalidRange, "ranges must be strictly sorted by price_lower")
			}
		}
	}
	return nil
}

func (e *Engine) requireInit() error {
	if !e.initialized {
		return errs.New(errs.NotInitialized, "pool not initialized")
	}
	return nil
}

func (e *Engine) findRange(rangeID string) (*LiquidityRange, error) {
	r, ok := e.rangeIdx[rangeID]
	if !ok {
		return nil, errs.New(errs.InvalidParams, "unknown range_id %q", rangeID)
	}
	return r, nil
}

// settleFees credits a position with any fee growth accrued on its
// range since its last interaction, the standard fee-growth-per-unit-
// of-liquidity pattern.
func settleFees(r *LiquidityRange, p *LpPosition) {
	if p.LpTokens == 0 {
		p.feeGrowthInsideXLast = r.feeGrowthGlobalX
		p.feeGrowthInsideYLast = r.feeGrowthGlobalY
		return
	}
	dx := r.feeGrowthGlobalX - p.feeGrowthInsideXLast
	dy := r.feeGrowthGlobalY - p.feeGrowthInsideYLast
	if dx > 0 {
		p.unclaimedX += dx * p.LpTokens / feeGrowthScale
	}
	if dy > 0 {
		p.unclaimedY += dy * p.LpTokens / feeGrowthScale
	}
	p.feeGrowthInsideXLast = r.feeGrowthGlobalX
	p.feeGrowthInsideYLast = r.feeGrowthGlobalY
}

// AddLiquidity deposits into an existing range, minting LP tokens to
// owner proportional to the range's current reserve ratio (or, for a
// range with no existing deposits, via the sqrt(x*y) genesis formula).
func (e *Engine) AddLiquidity(owner, rangeID string, amountXDesired, amountYDesired, amountXMin, amountYMin, deadline, now uint64) (amountX, amountY, lpMinted uint64, err error) {
	if err := e.requireInit(); err != nil {
		return 0, 0, 0, err
	}
	if deadline != 0 && now > deadline {
		return 0, 0, 0, errs.New(errs.DeadlineExpired, "deadline %d < now %d", deadline, now)
	}
	if owner == "" {
		return 0, 0, 0, errs.New(errs.InvalidParams, "owner is required")
	}
	r, err := e.findRange(rangeID)
	if err != nil {
		return 0, 0, 0, err
	}
	if !r.Active {
		return 0, 0, 0, errs.New(errs.InvalidRange, "range %q is frozen", rangeID)
	}

	if r.Liquidity == 0 || (r.ReserveX == 0 && r.ReserveY == 0) {
		minted, gerr := genesisMint(amountXDesired, amountYDesired)
		if gerr != nil {
			return 0, 0, 0, gerr
		}
		amountX, amountY = amountXDesired, amountYDesired
		lpMinted = minted
		r.Liquidity += minted + MinLiquidity
		r.ReserveX += amountX
		r.ReserveY += amountY
	} else {
		optimalY, merr := fixedpoint.MulDiv(amountXDesired, r.ReserveY, r.ReserveX)
		if merr != nil {
			return 0, 0, 0, errs.New(errs.InternalError, "optimal_y: %v", merr)
		}
		if optimalY <= amountYDesired {
			amountX, amountY = amountXDesired, optimalY
		} else {
			optimalX, merr := fixedpoint.MulDiv(amountYDesired, r.ReserveX, r.ReserveY)
			if merr != nil {
				return 0, 0, 0, errs.New(errs.InternalError, "optimal_x: %v", merr)
			}
			amountX, amountY = optimalX, amountYDesired
		}
		if amountX < amountXMin || amountY < amountYMin {
			return 0, 0, 0, errs.New(errs.SlippageExceeded, "deposit ratio below caller minimums")
		}
		mintFromX, merr := fixedpoint.MulDiv(amountX, r.Liquidity, r.ReserveX)
		if merr != nil {
			return 0, 0, 0, errs.New(errs.InternalError, "mint_from_x: %v", merr)
		}
		mintFromY, merr := fixedpoint.MulDiv(amountY, r.Liquidity, r.ReserveY)
		if merr != nil {
			return 0, 0, 0, errs.New(errs.InternalError, "mint_from_y: %v", merr)
		}
		lpMinted = mintFromX
		if mintFromY < lpMinted {
			lpMinted = mintFromY
		}
		if lpMinted == 0 {
			return 0, 0, 0, errs.New(errs.InvalidParams, "deposit too small to mint any liquidity")
		}
		r.Liquidity += lpMinted
		r.ReserveX += amountX
		r.ReserveY += amountY
	}

	key := positionKey{owner: owner, rangeID: rangeID}
	p, ok := e.positions[key]
	if !ok {
		p = &LpPosition{Owner: owner, RangeID: rangeID,
			feeGrowthInsideXLast: r.feeGrowthGlobalX, feeGrowthInsideYLast: r.feeGrowthGlobalY}
		e.positions[key] = p
	} else {
		settleFees(r, p)
	}
	p.LpTokens += lpMinted

	return amountX, amountY, lpMinted, nil
}

// RemoveLiquidity burns lpAmount of owner's position in rangeID,
// returning a proportional share of the range's reserves plus any
// settled unclaimed fees.
func (e *Engine) RemoveLiquidity(owner, rangeID string, lpAmount, amountXMin, amountYMin, deadline, now uint64) (amountX, amountY, feeX, feeY uint64, err error) {
	if err := e.requireInit(); err != nil {
		return 0, 0, 0, 0, err
	}
	if deadline != 0 && now > deadline {
		return 0, 0, 0, 0, errs.New(errs.DeadlineExpired, "deadline %d < now %d", deadline, now)
	}
	r, err := e.findRange(rangeID)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	key := positionKey{owner: owner, rangeID: rangeID}
	p, ok := e.positions[key]
	if !ok || p.LpTokens == 0 {
		return 0, 0, 0, 0, errs.New(errs.InvalidParams, "no position for owner in range %q", rangeID)
	}
	if lpAmount == 0 || lpAmount > p.LpTokens {
		return 0, 0, 0, 0, errs.New(errs.InvalidParams, "lp_amount %d exceeds position balance %d", lpAmount, p.LpTokens)
	}

	settleFees(r, p)

	amountX, err = fixedpoint.MulDiv(lpAmount, r.ReserveX, r.Liquidity)
	if err != nil {
		return 0, 0, 0, 0, errs.New(errs.InternalError, "amount_x: %v", err)
	}
	amountY, err = fixedpoint.MulDiv(lpAmount, r.ReserveY, r.Liquidity)
	if err != nil {
		return 0, 0, 0, 0, errs.New(errs.InternalError, "amount_y: %v", err)
	}
	if amountX < amountXMin || amountY < amountYMin {
		return 0, 0, 0, 0, errs.New(errs.SlippageExceeded, "withdrawal below caller minimums")
	}

	r.Liquidity -= lpAmount
	r.ReserveX -= amountX
	r.ReserveY -= amountY
	p.LpTokens -= lpAmount

	feeX, feeY = p.unclaimedX, p.unclaimedY
	p.unclaimedX, p.unclaimedY = 0, 0

	if p.LpTokens == 0 {
		delete(e.positions, key)
	}
	return amountX, amountY, feeX, feeY, nil
}

// activeRangeOrder returns indices into all of e.ranges, active or not,
// in traversal order: ascending price_lower for x->y, descending for
// y->x, per spec.md's range-traversal rule.
func (e *Engine) activeRangeOrder(xToY bool) []int {
	idx := make([]int, 0, len(e.ranges))
	for i := range e.ranges {
		idx = append(idx, i)
	}
	sort.Slice(idx, func(a, b int) bool {
		if xToY {
			return e.ranges[idx[a]].PriceLower < e.ranges[idx[b]].PriceLower
		}
		return e.ranges[idx[a]].PriceLower > e.ranges[idx[b]].PriceLower
	})
	return idx
}

// selectSwapRange finds the active range to execute a swap against:
// the one straddling the current price if it has reserves, else the
// first active range in traversal order that holds both reserves (the
// lowest for x->y, the highest for y->x), whatever its distance from
// the current price.
func (e *Engine) selectSwapRange(xToY bool) *LiquidityRange {
	order := e.activeRangeOrder(xToY)

	for _, i := range order {
		r := e.ranges[i]
		if !r.Active {
			continue
		}
		if r.PriceLower <= e.currentPrice && e.currentPrice < r.PriceUpper && (r.ReserveX > 0 || r.ReserveY > 0) {
			return r
		}
	}
	for _, i := range order {
		r := e.ranges[i]
		if r.Active && r.ReserveX > 0 && r.ReserveY > 0 {
			return r
		}
	}
	return nil
}

// swapMath executes the constant-product quote for one range: given
// feeBps charged on amountIn up front, returns the gross output and
// the total/protocol/lp fee split, without mutating state.
func swapMath(r *LiquidityRange, xToY bool, amountIn, feeBps, protocolShareBps uint64) (amountOut, totalFee, protocolFee, lpFee uint64, err error) {
	reserveIn, reserveOut := r.ReserveX, r.ReserveY
	if !xToY {
		reserveIn, reserveOut = r.ReserveY, r.ReserveX
	}
	if reserveIn == 0 || reserveOut == 0 {
		return 0, 0, 0, 0, errs.New(errs.InsufficientLiquidity, "selected range has no reserves")
	}

	totalFee = fixedpoint.MulBps(amountIn, feeBps)
	if totalFee > amountIn {
		totalFee = amountIn
	}
	amountInAfterFee := amountIn - totalFee

	protocolFee = fixedpoint.MulBps(totalFee, protocolShareBps)
	lpFee = totalFee - protocolFee

	k, err := fixedpoint.MulDiv(reserveIn, reserveOut, 1)
	if err != nil {
		return 0, 0, 0, 0, errs.New(errs.InsufficientLiquidity, "reserve product overflow: %v", err)
	}
	newReserveIn := reserveIn + amountInAfterFee
	newReserveOut, err := fixedpoint.CeilMulDiv(k, 1, newReserveIn)
	if err != nil {
		return 0, 0, 0, 0, errs.New(errs.InternalError, "new_reserve_out: %v", err)
	}
	if newReserveOut >= reserveOut {
		return 0, 0, 0, 0, errs.New(errs.InsufficientLiquidity, "degenerate swap: no output")
	}
	amountOut = reserveOut - newReserveOut
	return amountOut, totalFee, protocolFee, lpFee, nil
}

// QuoteSwap computes the would-be output, price impact, and fee rate
// for a swap of amountIn of assetIn, without mutating pool state. It
// uses the pool's currently configured default fee rate: the caller
// that actually executes swap may pass a fresher, dynamically computed
// fee_bps instead.
func (e *Engine) QuoteSwap(assetIn uint32, amountIn uint64) (amountOut, priceImpactBps, feeBps uint64, err error) {
	if err := e.requireInit(); err != nil {
		return 0, 0, 0, err
	}
	xToY, err := e.directionOf(assetIn)
	if err != nil {
		return 0, 0, 0, err
	}
	if amountIn == 0 {
		return 0, 0, 0, errs.New(errs.InvalidParams, "amount_in must be positive")
	}

	r := e.selectSwapRange(xToY)
	if r == nil {
		return 0, 0, 0, errs.New(errs.InsufficientLiquidity, "no active range has reserves")
	}

	amountOut, _, _, _, err = swapMath(r, xToY, amountIn, e.feeRateBps, 0)
	if err != nil {
		return 0, 0, 0, err
	}

	newPrice, err := priceAfterSwap(e.currentPrice, amountIn, r.Liquidity, xToY)
	if err != nil {
		return 0, 0, 0, err
	}
	priceImpactBps, err = bpsDelta(e.currentPrice, newPrice)
	if err != nil {
		return 0, 0, 0, err
	}

	return amountOut, priceImpactBps, e.feeRateBps, nil
}

func (e *Engine) directionOf(assetIn uint32) (xToY bool, err error) {
	switch assetIn {
	case e.pair.AssetX:
		return true, nil
	case e.pair.AssetY:
		return false, nil
	default:
		return false, errs.New(errs.InvalidAsset, "asset %d is not part of this pool", assetIn)
	}
}

func priceAfterSwap(currentPrice, amountIn, liquidity uint64, xToY bool) (uint64, error) {
	if liquidity == 0 {
		return 0, errs.New(errs.InternalError, "zero liquidity in price impact calc")
	}
	delta, err := fixedpoint.MulDiv(amountIn, currentPrice, liquidity*100)
	if err != nil {
		return 0, errs.New(errs.InternalError, "price delta: %v", err)
	}
	if xToY {
		if delta >= currentPrice {
			return 1, nil
		}
		return currentPrice - delta, nil
	}
	return currentPrice + delta, nil
}

func bpsDelta(before, after uint64) (uint64, error) {
	var d uint64
	if after >= before {
		d = after - before
	} else {
		d = before - after
	}
	return fixedpoint.MulDiv(d, fixedpoint.ScaleR, before)
}

// Swap executes a real trade: assetIn/amountIn in, the opposing asset
// out, subject to minAmountOut and deadline. feeBps and
// protocolShareBps are supplied by the caller (the orchestrator,
// having already consulted FeeManager) rather than computed here:
// PoolEngine never calls another component.
func (e *Engine) Swap(traderID string, assetIn uint32, amountIn, minAmountOut, deadline, now, feeBps, protocolShareBps uint64) (amountOut uint64, err error) {
	if err := e.requireInit(); err != nil {
		return 0, err
	}
	if deadline != 0 && now > deadline {
		return 0, errs.New(errs.DeadlineExpired, "deadline %d < now %d", deadline, now)
	}
	xToY, err := e.directionOf(assetIn)
	if err != nil {
		return 0, err
	}
	if amountIn == 0 {
		return 0, errs.New(errs.InvalidParams, "amount_in must be positive")
	}

	r := e.selectSwapRange(xToY)
	if r == nil {
		return 0, errs.New(errs.InsufficientLiquidity, "no active range has reserves")
	}

	amountOut, _, protocolFee, lpFee, err := swapMath(r, xToY, amountIn, feeBps, protocolShareBps)
	if err != nil {
		return 0, err
	}
	if amountOut < minAmountOut {
		return 0, errs.New(errs.SlippageExceeded, "amount_out %d below minimum %d", amountOut, minAmountOut)
	}

	newPrice, err := priceAfterSwap(e.currentPrice, amountIn, r.Liquidity, xToY)
	if err != nil {
		return 0, err
	}

	amountInAfterFee := amountIn - (protocolFee + lpFee)
	if xToY {
		r.ReserveX += amountInAfterFee
		r.ReserveY -= amountOut
		r.FeesAccruedX += lpFee
		e.protocolFeesX += protocolFee
		if r.Liquidity > 0 {
			r.feeGrowthGlobalX += lpFee * feeGrowthScale / r.Liquidity
		}
	} else {
		r.ReserveY += amountInAfterFee
		r.ReserveX -= amountOut
		r.FeesAccruedY += lpFee
		e.protocolFeesY += protocolFee
		if r.Liquidity > 0 {
			r.feeGrowthGlobalY += lpFee * feeGrowthScale / r.Liquidity
		}
	}

	e.currentPrice = newPrice
	return amountOut, nil
}

// ApplyRebalance atomically replaces the active range set. Existing
// ranges are frozen (Active=false) rather than deleted, so their LP
// positions remain fully redeemable; new ranges' liquidity is minted
// to the synthetic poolOwner. Any pending lp-fee accrual on a frozen
// range is swept to the price-closest new range, per spec.md's
// reattribution rule. The whole operation is rejected — with no
// mutation — if the proposal fails conservation or geometry checks.
func (e *Engine) ApplyRebalance(proposed []RangeSpec, now uint64) error {
	if err := e.requireInit(); err != nil {
		return err
	}
	if len(proposed) == 0 {
		return errs.New(errs.InvalidProposal, "empty proposal")
	}

	var oldTotal uint64
	for _, r := range e.ranges {
		if r.Active {
			oldTotal += r.Liquidity
		}
	}

	if err := validateGeometry(proposed); err != nil {
		return errs.New(errs.InvalidProposal, "%v", err)
	}
	var newTotal uint64
	for _, r := range proposed {
		newTotal += r.Liquidity
	}
	if !withinToleranceBps(newTotal, oldTotal, liquidityToleranceBps) {
		return errs.New(errs.InvalidProposal, "proposed total %d does not conserve old total %d", newTotal, oldTotal)
	}

	newRanges := make([]*LiquidityRange, len(proposed))
	for i, spec := range proposed {
		newRanges[i] = &LiquidityRange{
			RangeID:    uuid.NewString(),
			PriceLower: spec.PriceLower,
			PriceUpper: spec.PriceUpper,
			Liquidity:  spec.Liquidity,
			Active:     true,
		}
	}

	for _, old := range e.ranges {
		if !old.Active {
			continue
		}
		target := nearestRange(newRanges, old.PriceLower, old.PriceUpper)
		if target != nil {
			target.FeesAccruedX += old.FeesAccruedX
			target.FeesAccruedY += old.FeesAccruedY
			if target.Liquidity > 0 {
				target.feeGrowthGlobalX += old.FeesAccruedX * feeGrowthScale / target.Liquidity
				target.feeGrowthGlobalY += old.FeesAccruedY * feeGrowthScale / target.Liquidity
			}
		}
		old.Active = false
		old.FeesAccruedX, old.FeesAccruedY = 0, 0
	}

	for _, nr := range newRanges {
		e.ranges = append(e.ranges, nr)
		e.rangeIdx[nr.RangeID] = nr
		e.positions[positionKey{owner: poolOwner, rangeID: nr.RangeID}] = &LpPosition{
			Owner: poolOwner, RangeID: nr.RangeID, LpTokens: nr.Liquidity,
			feeGrowthInsideXLast: nr.feeGrowthGlobalX, feeGrowthInsideYLast: nr.feeGrowthGlobalY,
		}
	}

	e.lastRebalanceTime = now
	return nil
}

func withinToleranceBps(got, want, toleranceBps uint64) bool {
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

func nearestRange(ranges []*LiquidityRange, lower, upper uint64) *LiquidityRange {
	if len(ranges) == 0 {
		return nil
	}
	center := (lower + upper) / 2
	best := ranges[0]
	bestDist := distanceToCenter(best, center)
	for _, r := range ranges[1:] {
		d := distanceToCenter(r, center)
		if d < bestDist {
			best, bestDist = r, d
		}
	}
	return best
}

func distanceToCenter(r *LiquidityRange, center uint64) uint64 {
	c := (r.PriceLower + r.PriceUpper) / 2
	if c >= center {
		return c - center
	}
	return center - c
}

// LastRebalanceTime returns the timestamp ApplyRebalance last
// succeeded at, or 0 if it has never been called.
func (e *Engine) LastRebalanceTime() uint64 {
	return e.lastRebalanceTime
}

// Snapshot returns a read-only view of the pool's full state.
func (e *Engine) Snapshot() (Snapshot, error) {
	if err := e.requireInit(); err != nil {
		return Snapshot{}, err
	}
	var total uint64
	views := make([]RangeView, len(e.ranges))
	for i, r := range e.ranges {
		if r.Active {
			total += r.Liquidity
		}
		views[i] = RangeView{
			RangeID: r.RangeID, PriceLower: r.PriceLower, PriceUpper: r.PriceUpper,
			Liquidity: r.Liquidity, Active: r.Active,
			ReserveX: r.ReserveX, ReserveY: r.ReserveY,
			FeesAccruedX: r.FeesAccruedX, FeesAccruedY: r.FeesAccruedY,
		}
	}
	return Snapshot{
		Pair: e.pair, CurrentPrice: e.currentPrice, FeeRateBps: e.feeRateBps,
		TotalLiquidity: total, LastRebalanceTime: e.lastRebalanceTime,
		ProtocolFeesX: e.protocolFeesX, ProtocolFeesY: e.protocolFeesY,
		Ranges: views,
	}, nil
}

// ListPositions returns owner's positions across all ranges, settling
// (but not clearing) any pending fee growth first so the view is
// current.
func (e *Engine) ListPositions(owner string) ([]PositionView, error) {
	if err := e.requireInit(); err != nil {
		return nil, err
	}
	var out []PositionView
	for _, r := range e.ranges {
		key := positionKey{owner: owner, rangeID: r.RangeID}
		p, ok := e.positions[key]
		if !ok || p.LpTokens == 0 {
			continue
		}
		settleFees(r, p)
		out = append(out, PositionView{
			RangeID: r.RangeID, LpTokens: p.LpTokens,
			UnclaimedFeesX: p.unclaimedX, UnclaimedFeesY: p.unclaimedY,
		})
	}
	return out, nil
}
