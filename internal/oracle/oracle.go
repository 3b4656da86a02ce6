// Package oracle implements the VolatilityOracle: an EWMA of percentage
// returns over a price stream, a five-tier regime classification, and the
// rebalance-trigger decision that the orchestrator consults every tick.
//
// Grounded on the teacher's regime detector shape
// (internal/domain/regime/detector.go: a struct holding thresholds and
// a "last detection" cache, a DetectRegime-style entry point) adapted
// to the spec's EWMA-of-returns algorithm and ring-buffer history
// instead of the teacher's breadth/MA-position voting.
package oracle

import (
	"github.com/seltra-labs/amm-core/internal/errs"
	"github.com/seltra-labs/amm-core/internal/fixedpoint"
)

// Regime is the five-tier volatility classification. RebalancingEngine
// consumes the five-tier granularity directly; external consumers that
// only want {Low, Medium, High} may coalesce UltraLow+Low and
// High+Extreme themselves.
type Regime int

const (
	UltraLow Regime = iota
	Low
	Medium
	High
	Extreme
)

func (r Regime) String() string {
	switch r {
	case UltraLow:
		return "UltraLow"
	case Low:
		return "Low"
	case Medium:
		return "Medium"
	case High:
		return "High"
	case Extreme:
		return "Extreme"
	default:
		return "Unknown"
	}
}

// Regime thresholds, scale V. Volatility strictly below the bound maps
// to that tier; the top tier (Extreme) has no upper bound.
const (
	thresholdLow     = 15_000  // 1.5%
	thresholdMedium  = 30_000  // 3.0%
	thresholdHigh    = 60_000  // 6.0%
	thresholdExtreme = 120_000 // 12.0%
)

// ClassifyRegime is a total function of volatility (scale V) to Regime.
func ClassifyRegime(volatility uint64) Regime {
	switch {
	case volatility < thresholdLow:
		return UltraLow
	case volatility < thresholdMedium:
		return Low
	case volatility < thresholdHigh:
		return Medium
	case volatility < thresholdExtreme:
		return High
	default:
		return Extreme
	}
}

// Default configuration bounds and triggers, scale as documented.
const (
	MinAlpha  = ScaleV * 5 / 100  // 0.05 * V
	MaxAlpha  = ScaleV * 70 / 100 // 0.70 * V
	MinWindow = 5
	MaxWindow = 50

	DefaultMaxPriceJumpBps      = 3_000  // 30%, scale R
	DefaultMinRebalanceInterval = 60     // seconds
	DefaultMaxRebalanceInterval = 3_600  // seconds
	DefaultRebalanceThreshold   = 20_000 // scale V, 2%

	ScaleV = fixedpoint.ScaleV
	ScaleR = fixedpoint.ScaleR
)

// pricePoint is one ring-buffer entry.
type pricePoint struct {
	timestamp uint64
	price     uint64
	volume    uint64
}

// Oracle is a VolatilityOracle instance for a single pair. It owns its
// price history exclusively; nothing outside this package mutates it.
type Oracle struct {
	initialized bool

	alpha      uint64 // scale V
	windowSize int

	history   []pricePoint // ring buffer, capacity windowSize
	head      int          // next write index
	count     int          // entries currently held

	lastPrice      uint64
	lastUpdateTime uint64

	ewmaMean     int64  // scale V, signed
	ewmaVariance uint64 // scale V, non-negative

	maxPriceJumpBps      uint64
	minRebalanceInterval uint64
	maxRebalanceInterval uint64
	rebalanceThreshold   uint64

	lastRebalanceTime      uint64
	lastRebalanceVolatility uint64
	lastRebalanceRegime     Regime
}

// New constructs an uninitialized Oracle with default trigger
// parameters. Call Init before feeding prices.
func New() *Oracle {
	return &Oracle{
		maxPriceJumpBps:      DefaultMaxPriceJumpBps,
		minRebalanceInterval: DefaultMinRebalanceInterval,
		maxRebalanceInterval: DefaultMaxRebalanceInterval,
		rebalanceThreshold:   DefaultRebalanceThreshold,
	}
}

// WithMaxPriceJumpBps overrides the sanity-gate threshold before Init.
func (o *Oracle) WithMaxPriceJumpBps(bps uint64) *Oracle {
	o.maxPriceJumpBps = bps
	return o
}

// WithRebalanceIntervals overrides the min/max rebalance cooldown
// windows (seconds) before Init.
func (o *Oracle) WithRebalanceIntervals(minSeconds, maxSeconds uint64) *Oracle {
	o.minRebalanceInterval = minSeconds
	o.maxRebalanceInterval = maxSeconds
	return o
}

// WithRebalanceThreshold overrides the volatility-delta trigger (scale
// V) before Init.
func (o *Oracle) WithRebalanceThreshold(threshold uint64) *Oracle {
	o.rebalanceThreshold = threshold
	return o
}

// Init initializes the oracle with a seed price and EWMA parameters.
func (o *Oracle) Init(initialPrice, alphaScaled uint64, windowSize int) error {
	if o.initialized {
		return errs.New(errs.AlreadyInitialized, "oracle already initialized")
	}
	if initialPrice == 0 {
		return errs.New(errs.InvalidParams, "initial_price must be positive")
	}
	if alphaScaled < MinAlpha || alphaScaled > MaxAlpha {
		return errs.New(errs.InvalidParams, "alpha %d outside [%d, %d]", alphaScaled, MinAlpha, MaxAlpha)
	}
	if windowSize < MinWindow || windowSize > MaxWindow {
		return errs.New(errs.InvalidParams, "window_size %d outside [%d, %d]", windowSize, MinWindow, MaxWindow)
	}

	o.alpha = alphaScaled
	o.windowSize = windowSize
	o.history = make([]pricePoint, windowSize)
	o.head = 0
	o.count = 0
	o.lastPrice = initialPrice
	o.lastUpdateTime = 0
	o.ewmaMean = 0
	o.ewmaVariance = 0
	o.lastRebalanceTime = 0
	o.lastRebalanceVolatility = 0
	o.lastRebalanceRegime = ClassifyRegime(0)
	o.initialized = true

	o.push(0, initialPrice, 0)
	return nil
}

func (o *Oracle) push(timestamp, price, volume uint64) {
	o.history[o.head] = pricePoint{timestamp: timestamp, price: price, volume: volume}
	o.head = (o.head + 1) % o.windowSize
	if o.count < o.windowSize {
		o.count++
	}
}

// UpdatePrice feeds one new observation. It either fully applies the
// update (advancing mean/variance/history/last_price) or fully rejects
// it, leaving state unchanged.
func (o *Oracle) UpdatePrice(price, volume, timestamp uint64) error {
	if !o.initialized {
		return errs.New(errs.NotInitialized, "oracle not initialized")
	}
	if price == 0 {
		return errs.New(errs.Rejected, "price must be positive")
	}
	if timestamp <= o.lastUpdateTime {
		return errs.New(errs.Rejected, "timestamp %d not strictly increasing past %d", timestamp, o.lastUpdateTime)
	}

	jumpBps, err := bpsDelta(o.lastPrice, price)
	if err != nil {
		return errs.New(errs.InternalError, "jump calculation failed: %v", err)
	}
	if jumpBps > o.maxPriceJumpBps {
		return errs.New(errs.Rejected, "price jump %d bps exceeds max %d bps", jumpBps, o.maxPriceJumpBps)
	}

	r, err := fixedpoint.PctChange(o.lastPrice, price)
	if err != nil {
		return errs.New(errs.InternalError, "return calculation failed: %v", err)
	}

	newMean := ewmaStep(o.alpha, o.ewmaMean, r)
	deviation := r - newMean
	devSq := squareScaled(deviation)
	newVariance := ewmaVarianceStep(o.alpha, o.ewmaVariance, devSq)

	o.ewmaMean = newMean
	o.ewmaVariance = newVariance
	o.push(timestamp, price, volume)
	o.lastPrice = price
	o.lastUpdateTime = timestamp
	return nil
}

// bpsDelta returns |newP - oldP| * ScaleR / oldP, the relative jump in
// basis points, used for the sanity gate.
func bpsDelta(oldP, newP uint64) (uint64, error) {
	var diff uint64
	if newP >= oldP {
		diff = newP - oldP
	} else {
		diff = oldP - newP
	}
	return fixedpoint.MulDiv(diff, fixedpoint.ScaleR, oldP)
}

// ewmaStep computes alpha*r + (1-alpha)*mean at scale V, signed.
func ewmaStep(alpha uint64, mean, r int64) int64 {
	a := int64(alpha)
	v := int64(fixedpoint.ScaleV)
	return (a*r + (v-a)*mean) / v
}

// ewmaVarianceStep computes alpha*devSq + (1-alpha)*variance at scale
// V, where devSq is already deviation^2/V (see squareScaled).
func ewmaVarianceStep(alpha uint64, variance, devSq uint64) uint64 {
	v := uint64(fixedpoint.ScaleV)
	alphaTerm := (alpha * devSq) / v
	oneMinusAlphaTerm := ((v - alpha) * variance) / v
	return alphaTerm + oneMinusAlphaTerm
}

// squareScaled returns x^2/V for a signed scale-V quantity x, i.e. the
// scale-V representation of x^2 (since x is already scale-V, x*x is
// scale-V^2; dividing by V returns it to scale V).
func squareScaled(x int64) uint64 {
	ax := fixedpoint.AbsInt64(x)
	return (ax * ax) / fixedpoint.ScaleV
}

// CurrentVolatility returns sqrt(variance), scale V.
func (o *Oracle) CurrentVolatility() uint64 {
	return fixedpoint.Sqrt(o.ewmaVariance) * sqrtScaleCorrection()
}

// sqrtScaleCorrection exists because Sqrt operates on raw integers: if
// variance is at scale V, sqrt(variance) is at scale sqrt(V), not V.
// V = 1e6 so sqrt(V) = 1e3; multiplying by 1e3 returns the result to
// scale V (volatility, like variance's square root, is conventionally
// reported at scale V in this engine).
func sqrtScaleCorrection() uint64 {
	return 1_000
}

// CurrentRegime classifies the current volatility.
func (o *Oracle) CurrentRegime() Regime {
	return ClassifyRegime(o.CurrentVolatility())
}

// ShouldRebalance evaluates the three trigger rules from the spec: a
// volatility-delta trigger gated by the minimum cooldown, a regime-tier
// change trigger, or a forced-refresh trigger at the maximum interval.
func (o *Oracle) ShouldRebalance(now uint64) bool {
	if !o.initialized {
		return false
	}
	currentVol := o.CurrentVolatility()
	elapsed := saturatingSub(now, o.lastRebalanceTime)

	if elapsed >= o.minRebalanceInterval {
		delta := fixedpoint.AbsInt64(int64(currentVol) - int64(o.lastRebalanceVolatility))
		if delta >= o.rebalanceThreshold {
			return true
		}
	}

	if o.CurrentRegime() != o.lastRebalanceRegime {
		return true
	}

	if elapsed >= o.maxRebalanceInterval {
		return true
	}

	return false
}

func saturatingSub(a, b uint64) uint64 {
	if a <= b {
		return 0
	}
	return a - b
}

// MarkRebalanceCompleted snapshots the rebalance baseline. It is
// idempotent within a tick: calling it twice at the same `now` with no
// intervening UpdatePrice has the effect of calling it once.
func (o *Oracle) MarkRebalanceCompleted(now uint64) {
	o.lastRebalanceTime = now
	o.lastRebalanceVolatility = o.CurrentVolatility()
	o.lastRebalanceRegime = o.CurrentRegime()
}

// LastPrice returns the most recently accepted price.
func (o *Oracle) LastPrice() uint64 { return o.lastPrice }

// LastUpdateTime returns the timestamp of the most recently accepted
// update.
func (o *Oracle) LastUpdateTime() uint64 { return o.lastUpdateTime }

// History returns the price history in chronological order, oldest
// first, bounded to the configured window size.
func (o *Oracle) History() []PricePoint {
	out := make([]PricePoint, 0, o.count)
	start := (o.head - o.count + o.windowSize) % o.windowSize
	for i := 0; i < o.count; i++ {
		idx := (start + i) % o.windowSize
		p := o.history[idx]
		out = append(out, PricePoint{Timestamp: p.timestamp, Price: p.price, Volume: p.volume})
	}
	return out
}

// PricePoint is the externally visible read-only view of one history
// entry.
type PricePoint struct {
	Timestamp uint64
	Price     uint64
	Volume    uint64
}

// WindowSize returns the configured ring-buffer capacity.
func (o *Oracle) WindowSize() int { return o.windowSize }

// Initialized reports whether Init has succeeded.
func (o *Oracle) Initialized() bool { return o.initialized }
