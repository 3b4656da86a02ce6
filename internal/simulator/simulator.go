// Package simulator implements the MarketSimulator: a price/volume
// generator under a named scenario that drives a population of
// simulated wallets submitting trades to the pool.
//
// Grounded on the pack's price-generator reference file
// (other_examples: simulated_exchange's internal/domain price
// generator) for the overall shape — a config struct, per-symbol
// mutable state, a seeded *rand.Rand, and a GeneratePrice method that
// composes drift/random/mean-reversion components — adapted here to
// the spec's closed scenario set and wallet-driven trade scheduling.
package simulator

import (
	"math"
	"math/rand"
	"sort"

	"github.com/seltra-labs/amm-core/internal/errs"
	"github.com/seltra-labs/amm-core/internal/fixedpoint"
)

// Simulator holds the full mutable state of one simulation run: the
// latent continuous-state price process, the wallet population, and
// the queue of trades wallets have submitted but not yet had
// delivered.
type Simulator struct {
	rng *rand.Rand

	scenario   Scenario
	logPrice   float64 // natural log of the scaled price, the OU/GBM state variable
	volatility float64 // current per-tick vol fraction, mutated by GARCH scenarios
	prevEps    float64 // previous shock, for the GARCH recursion

	shockRemainingTicks uint64
	shockMagnitude      float64

	wallets map[string]*Wallet
	pending []ScheduledTrade

	volumeAccumBps uint64
}

// New constructs a Simulator seeded from seed (pass a fixed value for
// reproducible runs; the orchestrator is responsible for supplying
// entropy if true randomness is wanted).
func New(seed int64, initialPrice uint64, scenario Scenario) (*Simulator, error) {
	if initialPrice == 0 {
		return nil, errs.New(errs.InvalidParams, "initial_price must be positive")
	}
	params, ok := scenarios[scenario]
	if !ok {
		return nil, errs.New(errs.InvalidParams, "unknown scenario %q", scenario)
	}
	return &Simulator{
		rng:        rand.New(rand.NewSource(seed)),
		scenario:   scenario,
		logPrice:   math.Log(float64(initialPrice)),
		volatility: params.baseVol,
		wallets:    make(map[string]*Wallet),
	}, nil
}

// AddWallet registers a simulated participant. botFreqPerMin is only
// consulted when kind is WalletBot and must be >= 1.0 per spec.md
// §4.6; it is ignored otherwise.
func (s *Simulator) AddWallet(address string, kind WalletKind, balanceX, balanceY uint64, botFreqPerMin float64) error {
	if _, ok := walletProfiles[kind]; !ok {
		return errs.New(errs.InvalidParams, "unknown wallet kind %q", kind)
	}
	if kind == WalletBot && botFreqPerMin < 1.0 {
		return errs.New(errs.InvalidParams, "bot base_trade_frequency must be >= 1.0 tx/min")
	}
	s.wallets[address] = &Wallet{Address: address, Kind: kind, BalanceX: balanceX, BalanceY: balanceY, BotBaseFreqPerMin: botFreqPerMin}
	return nil
}

// WalletKindOf reports the registered kind of address, for callers
// (the orchestrator's ChainAdapter wiring) that need to key a
// per-wallet-kind resource by an address taken off a ScheduledTrade.
func (s *Simulator) WalletKindOf(address string) (WalletKind, bool) {
	w, ok := s.wallets[address]
	if !ok {
		return "", false
	}
	return w.Kind, true
}

// SetScenario switches the active scenario. Per spec.md §4.7 this
// mutates only simulator state; it never touches the pool.
func (s *Simulator) SetScenario(scenario Scenario) error {
	params, ok := scenarios[scenario]
	if !ok {
		return errs.New(errs.InvalidParams, "unknown scenario %q", scenario)
	}
	s.scenario = scenario
	s.volatility = params.baseVol
	return nil
}

// SetVolatilityRegimeHint overrides the simulator's latent volatility
// directly, e.g. so an operator can force a regime transition for
// testing without waiting for the stochastic process to drift there.
func (s *Simulator) SetVolatilityRegimeHint(volFraction float64) error {
	if volFraction < 0 {
		return errs.New(errs.InvalidParams, "volatility fraction must be non-negative")
	}
	s.volatility = volFraction
	return nil
}

// InjectPriceShock applies a price shock of magnitudeBps (signed, basis
// points): all at once as a one-tick discontinuity for
// durationTicks == 0, otherwise spread evenly over the next
// durationTicks ticks.
func (s *Simulator) InjectPriceShock(magnitudeBps int64, durationTicks uint64) {
	frac := float64(magnitudeBps) / float64(fixedpoint.ScaleR)
	if durationTicks == 0 {
		s.logPrice += math.Log1p(frac)
		return
	}
	s.shockRemainingTicks = durationTicks
	s.shockMagnitude = frac / float64(durationTicks)
}

// Reset reseeds the process at initialPrice under scenario, clearing
// all pending trades but keeping the registered wallet population.
func (s *Simulator) Reset(seed int64, initialPrice uint64, scenario Scenario) error {
	params, ok := scenarios[scenario]
	if !ok {
		return errs.New(errs.InvalidParams, "unknown scenario %q", scenario)
	}
	s.rng = rand.New(rand.NewSource(seed))
	s.scenario = scenario
	s.logPrice = math.Log(float64(initialPrice))
	s.volatility = params.baseVol
	s.prevEps = 0
	s.shockRemainingTicks = 0
	s.pending = nil
	return nil
}

// Tick advances the simulator by dtSeconds, producing a new price and
// per-tick volume, plus any newly scheduled trades wallets submitted
// this tick. now is the caller's authoritative clock, used to stamp
// ScheduledTrade.PlannedTime.
func (s *Simulator) Tick(dtSeconds float64, now uint64) (newPrice, volume uint64, newlyScheduled []ScheduledTrade, err error) {
	if dtSeconds <= 0 {
		return 0, 0, nil, errs.New(errs.InvalidParams, "dt must be positive")
	}
	params := scenarios[s.scenario]

	s.advanceVolatility(params, dtSeconds)
	s.advancePrice(params, dtSeconds)

	if s.shockRemainingTicks > 0 {
		s.logPrice += math.Log1p(s.shockMagnitude)
		s.shockRemainingTicks--
	}

	newPrice = uint64(math.Max(1, math.Exp(s.logPrice)))

	var scheduled []ScheduledTrade
	for _, w := range s.orderedWallets() {
		trade, submitted := s.maybeSubmit(w, params, dtSeconds, now)
		if submitted {
			scheduled = append(scheduled, trade)
			volume += trade.Size
		}
	}
	s.pending = append(s.pending, scheduled...)

	return newPrice, volume, scheduled, nil
}

// orderedWallets returns wallets in a stable, deterministic order so
// Tick's sequence of rng draws is reproducible across runs for a fixed
// seed regardless of map iteration order.
func (s *Simulator) orderedWallets() []*Wallet {
	out := make([]*Wallet, 0, len(s.wallets))
	for _, w := range s.wallets {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

func (s *Simulator) advanceVolatility(params scenarioParams, dtSeconds float64) {
	if !params.garch {
		// Slow mean reversion toward the scenario baseline for
		// non-GARCH scenarios, so an operator's SetVolatilityRegimeHint
		// override decays back to the scenario's own character.
		s.volatility += (params.baseVol - s.volatility) * math.Min(1, 0.05*dtSeconds)
		return
	}
	const alpha0, alpha1, beta1 = 0.00002, 0.1, 0.85
	v2 := alpha0 + alpha1*s.prevEps*s.prevEps + beta1*s.volatility*s.volatility
	s.volatility = math.Sqrt(math.Max(v2, 1e-10))
}

func (s *Simulator) advancePrice(params scenarioParams, dtSeconds float64) {
	z := s.rng.NormFloat64()
	s.prevEps = z

	switch params.model {
	case modelOU:
		// mu is the current log price, so the reversion term is always
		// zero: calm moves as a driftless random walk at its base
		// volatility and does not revert toward any fixed level.
		mu := s.logPrice
		s.logPrice += params.reversionSpeed*(mu-s.logPrice)*dtSeconds + s.volatility*math.Sqrt(dtSeconds)*z
	case modelJumpDiffusion:
		s.logPrice += params.driftPerTick*dtSeconds + s.volatility*math.Sqrt(dtSeconds)*z
		if s.rng.Float64() < params.jumpIntensity*dtSeconds {
			jump := params.jumpMean + s.volatility*s.rng.NormFloat64()
			s.logPrice += math.Log1p(jump)
		}
	default: // modelGBM
		s.logPrice += params.driftPerTick*dtSeconds + s.volatility*math.Sqrt(dtSeconds)*z
	}
}

func (s *Simulator) maybeSubmit(w *Wallet, params scenarioParams, dtSeconds float64, now uint64) (ScheduledTrade, bool) {
	profile := walletProfiles[w.Kind]
	baseFreq := profile.baseFreqPerMin
	if w.Kind == WalletBot && w.BotBaseFreqPerMin > 0 {
		baseFreq = w.BotBaseFreqPerMin
	}

	baseline := scenarios[ScenarioNormal].baseVol
	prob := baseFreq / 60 * dtSeconds * (1 + profile.volatilitySensitivity*(s.volatility-baseline))
	if prob < 0 {
		prob = 0
	}
	if prob > 1 {
		prob = 1
	}
	if s.rng.Float64() >= prob {
		return ScheduledTrade{}, false
	}

	size := profile.sizeMean + profile.sizeVariance*s.rng.NormFloat64()
	size *= params.volumeSpike
	if size < 1 {
		size = 1
	}

	side := SideSellY
	if s.rng.Float64() < params.sellBias {
		side = SideSellX
	}

	delaySeconds := uint64(s.rng.Intn(31))
	return ScheduledTrade{
		Wallet:      w.Address,
		Type:        TradeSwap,
		Side:        side,
		Size:        uint64(size),
		PlannedTime: now + delaySeconds,
	}, true
}

// DueTrades removes and returns every pending trade whose PlannedTime
// is <= now, in ascending PlannedTime order — the orchestrator's
// delivery order for step 4 of its tick loop.
func (s *Simulator) DueTrades(now uint64) []ScheduledTrade {
	sort.Slice(s.pending, func(i, j int) bool { return s.pending[i].PlannedTime < s.pending[j].PlannedTime })
	i := 0
	for i < len(s.pending) && s.pending[i].PlannedTime <= now {
		i++
	}
	due := make([]ScheduledTrade, i)
	copy(due, s.pending[:i])
	s.pending = s.pending[i:]
	return due
}

// PendingCount reports how many submitted trades await delivery.
func (s *Simulator) PendingCount() int {
	return len(s.pending)
}

// CurrentScenario reports the active scenario.
func (s *Simulator) CurrentScenario() Scenario {
	return s.scenario
}
