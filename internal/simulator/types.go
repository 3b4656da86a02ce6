package simulator

// Scenario is the closed set of named scenarios from spec.md §4.6.
type Scenario string

const (
	ScenarioNormal        Scenario = "normal"
	ScenarioVolatile      Scenario = "volatile"
	ScenarioCalm          Scenario = "calm"
	ScenarioTrending      Scenario = "trending"
	ScenarioFlashCrash    Scenario = "flash_crash"
	ScenarioWhaleActivity Scenario = "whale_activity"
)

// priceModel tags which stochastic process a scenario's params drive.
type priceModel int

const (
	modelGBM priceModel = iota
	modelJumpDiffusion
	modelOU
)

// scenarioParams is one row of the scenario table. Rates are plain
// float64 fractions (0.02 == 2%): the simulator is the one component
// in this engine that genuinely generates continuous stochastic
// processes, and is grounded in the teacher-adjacent price-generator
// reference's float-based style rather than the core's scaled-integer
// convention. Conversion to scaled integers happens only at the tick
// boundary, when a price is handed to the oracle/pool.
type scenarioParams struct {
	model          priceModel
	driftPerTick   float64
	baseVol        float64 // annualized-ish per-tick vol fraction
	jumpIntensity  float64 // probability of a jump per tick
	jumpMean       float64
	reversionSpeed float64
	volumeSpike    float64
	sellBias       float64 // probability a submitted trade sells assetX
	garch          bool
}

var scenarios = map[Scenario]scenarioParams{
	ScenarioNormal:        {model: modelGBM, driftPerTick: 0.0001, baseVol: 0.02, sellBias: 0.5, volumeSpike: 1},
	ScenarioVolatile:      {model: modelJumpDiffusion, driftPerTick: 0, baseVol: 0.05, jumpIntensity: 0.1, jumpMean: 0, sellBias: 0.5, volumeSpike: 1, garch: true},
	ScenarioCalm:          {model: modelOU, driftPerTick: 0, baseVol: 0.005, reversionSpeed: 0.1, sellBias: 0.5, volumeSpike: 1},
	ScenarioTrending:      {model: modelGBM, driftPerTick: 0.001, baseVol: 0.015, sellBias: 0.4, volumeSpike: 1},
	ScenarioFlashCrash:    {model: modelJumpDiffusion, driftPerTick: 0, baseVol: 0.02, jumpIntensity: 0.1, jumpMean: -0.10, sellBias: 0.85, volumeSpike: 1},
	ScenarioWhaleActivity: {model: modelGBM, driftPerTick: 0.0001, baseVol: 0.03, sellBias: 0.5, volumeSpike: 10},
}

// WalletKind is the closed set of simulated wallet profiles.
type WalletKind string

const (
	WalletRetail WalletKind = "retail"
	WalletWhale  WalletKind = "whale"
	WalletBot    WalletKind = "bot"
)

// walletProfile is one row of the wallet-kind table (spec.md §4.6).
type walletProfile struct {
	baseFreqPerMin       float64
	sizeMean             float64
	sizeVariance         float64
	volatilitySensitivity float64
}

var walletProfiles = map[WalletKind]walletProfile{
	WalletRetail: {baseFreqPerMin: 0.5, sizeMean: 1_000, sizeVariance: 300, volatilitySensitivity: 1.0},
	WalletWhale:  {baseFreqPerMin: 0.2, sizeMean: 100_000, sizeVariance: 50_000, volatilitySensitivity: 0.3},
	WalletBot:    {baseFreqPerMin: 1.0, sizeMean: 10_000, sizeVariance: 1_000, volatilitySensitivity: 2.0},
}

// Wallet is one simulated participant.
type Wallet struct {
	Address    string
	Kind       WalletKind
	BalanceX   uint64
	BalanceY   uint64
	BotBaseFreqPerMin float64 // only consulted for WalletBot, must be >= 1.0
}

// TradeType is the closed set of actions a ScheduledTrade can carry.
type TradeType string

const (
	TradeSwap        TradeType = "swap"
	TradeAddLiq      TradeType = "add_liq"
	TradeRemoveLiq   TradeType = "remove_liq"
)

// Side indicates which asset a swap-type ScheduledTrade sells.
type Side string

const (
	SideSellX Side = "sell_x"
	SideSellY Side = "sell_y"
)

// ScheduledTrade is a trade submitted by a wallet, pending delivery at
// PlannedTime.
type ScheduledTrade struct {
	Wallet      string
	Type        TradeType
	Side        Side
	Size        uint64
	PlannedTime uint64
}
