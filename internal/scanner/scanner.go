package scanner

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"dex-zone-scanner/internal/analysis"
	"dex-zone-scanner/internal/database"
	"dex-zone-scanner/internal/geckoterminal"
	"dex-zone-scanner/internal/health"
	"dex-zone-scanner/internal/holderscan"
	"dex-zone-scanner/internal/market"
	"dex-zone-scanner/internal/strategy"
)

// Scanner is the long-lived scan loop: refresh trending, health-gate
// each token, run the right strategy family, publish surviving signals.
type Scanner struct {
	client   *geckoterminal.Client
	repo     *database.Repository
	engine   *analysis.Engine
	router   *analysis.TimeframeRouter
	checker  *health.Checker
	strategy *strategy.Engine
	gate     *strategy.CooldownGate
	holders  *holderscan.Client
	sink     SignalSink
	config   Config
	logger   zerolog.Logger

	stopChan chan struct{}
	wg       sync.WaitGroup
	cancelMu sync.Mutex
	cancel   context.CancelFunc

	mu           sync.RWMutex
	status       Status
	lastTrending time.Time
}

// New creates a scanner. sink may be nil in tests; holders may be a
// disabled client.
func New(
	client *geckoterminal.Client,
	repo *database.Repository,
	engine *analysis.Engine,
	router *analysis.TimeframeRouter,
	checker *health.Checker,
	strategyEngine *strategy.Engine,
	gate *strategy.CooldownGate,
	holders *holderscan.Client,
	sink SignalSink,
	config Config,
	logger zerolog.Logger,
) *Scanner {
	return &Scanner{
		client:   client,
		repo:     repo,
		engine:   engine,
		router:   router,
		checker:  checker,
		strategy: strategyEngine,
		gate:     gate,
		holders:  holders,
		sink:     sink,
		config:   config,
		logger:   logger.With().Str("component", "scanner").Logger(),
		stopChan: make(chan struct{}),
	}
}

// Start launches the background scan loop.
func (sc *Scanner) Start() {
	sc.mu.Lock()
	sc.status.Running = true
	sc.mu.Unlock()

	sc.wg.Add(1)
	go sc.run()
	sc.logger.Info().
		Dur("interval", sc.config.ScanInterval).
		Int("trending_limit", sc.config.TrendingLimit).
		Msg("scanner started")
}

// Stop signals the loop to exit, cancels the in-flight tick, and waits.
func (sc *Scanner) Stop() {
	close(sc.stopChan)
	sc.cancelMu.Lock()
	if sc.cancel != nil {
		sc.cancel()
	}
	sc.cancelMu.Unlock()
	sc.wg.Wait()

	sc.mu.Lock()
	sc.status.Running = false
	sc.mu.Unlock()
	sc.logger.Info().Msg("scanner stopped")
}

// Status returns a snapshot of the loop state.
func (sc *Scanner) Status() Status {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.status
}

func (sc *Scanner) run() {
	defer sc.wg.Done()

	for {
		ctx, cancel := context.WithCancel(context.Background())
		sc.cancelMu.Lock()
		sc.cancel = cancel
		sc.cancelMu.Unlock()

		err := sc.Tick(ctx)
		cancel()

		wait := sc.config.ScanInterval
		if err != nil && ctx.Err() == nil {
			sc.logger.Error().Err(err).Msg("scan tick failed")
			sc.mu.Lock()
			sc.status.LastError = err.Error()
			sc.mu.Unlock()
			wait = sc.config.ErrorBackoff
		}

		select {
		case <-sc.stopChan:
			return
		case <-time.After(wait):
		}
	}
}

// Tick runs one full scan pass over the watchlist.
func (sc *Scanner) Tick(ctx context.Context) error {
	start := time.Now()
	sc.mu.Lock()
	sc.status.LastTickStart = start
	sc.status.TokensScanned = 0
	sc.status.TokensSkipped = 0
	sc.mu.Unlock()

	if err := sc.refreshTrending(ctx); err != nil {
		return err
	}

	tokens, err := sc.repo.GetActiveWatchlist(ctx, sc.config.TrendingLimit)
	if err != nil {
		return err
	}
	sc.logger.Info().Int("tokens", len(tokens)).Msg("scan tick")

	for i, record := range tokens {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		sc.scanToken(ctx, record)

		if i < len(tokens)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(sc.config.TokenPause):
			}
		}
	}

	sc.mu.Lock()
	sc.status.LastTickEnd = time.Now()
	sc.status.TicksCompleted++
	sc.status.LastError = ""
	sc.mu.Unlock()
	sc.logger.Info().Dur("elapsed", time.Since(start)).Msg("scan tick complete")
	return nil
}

// refreshTrending re-fetches the trending list when stale and merges it
// into the persisted watchlist.
func (sc *Scanner) refreshTrending(ctx context.Context) error {
	sc.mu.RLock()
	fresh := time.Since(sc.lastTrending) < sc.config.TrendingRefresh
	sc.mu.RUnlock()
	if fresh {
		return nil
	}

	trending, err := sc.client.FetchTrendingPools(ctx, sc.config.TrendingLimit)
	if err != nil {
		return err
	}

	records := make([]database.TokenRecord, 0, len(trending))
	for _, t := range trending {
		records = append(records, database.TokenRecord{
			Address:   t.Address,
			Symbol:    t.Symbol,
			PoolID:    t.PoolID,
			Volume24h: t.Volume24h,
			PriceUSD:  t.PriceUSD,
		})
	}
	if err := sc.repo.UpsertTokens(ctx, records); err != nil {
		return err
	}

	sc.mu.Lock()
	sc.lastTrending = time.Now()
	sc.status.LastTrendingAt = sc.lastTrending
	sc.mu.Unlock()
	sc.logger.Info().Int("count", len(trending)).Msg("trending list refreshed")
	return nil
}

// scanToken processes one watchlist entry. Per-token failures are
// logged and swallowed; the tick continues.
func (sc *Scanner) scanToken(ctx context.Context, record database.TokenRecord) {
	log := sc.logger.With().Str("token", record.Symbol).Logger()

	pool, err := market.ParsePoolID(record.PoolID)
	if err != nil {
		log.Error().Err(err).Str("pool_id", record.PoolID).Msg("invalid pool id")
		sc.bumpSkipped()
		return
	}

	token := market.TrendingToken{
		Address:   record.Address,
		Symbol:    record.Symbol,
		PoolID:    record.PoolID,
		Volume24h: record.Volume24h,
		PriceUSD:  record.PriceUSD,
	}

	// Hourly probe shared by the health check and the router.
	probe, err := sc.engine.GetSeries(ctx, pool, market.TimeframeHour, 1, 100)
	if err != nil {
		log.Warn().Err(err).Msg("hourly probe failed, skipping token")
		sc.bumpSkipped()
		return
	}

	report := sc.checker.Check(ctx, token, probe)
	if err := sc.repo.UpdateTokenHealth(ctx, record.Address, string(report.Status), report.Score); err != nil {
		log.Warn().Err(err).Msg("health persist failed")
	}
	if report.Status != health.StatusActive {
		log.Info().Str("status", string(report.Status)).Msg("token unhealthy, skipping")
		sc.bumpSkipped()
		return
	}

	choice, routed := sc.router.Pick(ctx, pool)

	result, err := sc.engine.PerformAnalysis(ctx, record.PoolID, choice.Timeframe, choice.Aggregate, record.Symbol)
	if err != nil {
		log.Warn().Err(err).Msg("analysis failed")
		sc.bumpSkipped()
		return
	}
	if result == nil {
		sc.bumpSkipped()
		return
	}

	ageDays := probe.AgeHours() / 24
	if routed != nil {
		ageDays = routed.AgeHours() / 24
	}

	var sig *strategy.Signal
	if ageDays < sc.config.GemAgeDays {
		sig = sc.strategy.EvaluateGems(token, result)
	} else {
		sig, err = sc.strategy.Evaluate(ctx, token, result)
		if err != nil {
			log.Warn().Err(err).Msg("strategy evaluation failed")
		}
	}

	sc.recordStructure(ctx, record.Address, result)

	sc.bumpScanned()
	if sig == nil {
		return
	}

	if sc.gate.ShouldSuppress(ctx, sig) {
		sc.mu.Lock()
		sc.status.SignalsHeld++
		sc.mu.Unlock()
		return
	}

	sc.publish(ctx, record, sig)
}

// publish appends the alert record first, then pushes to the sink. A
// failed publish leaves the record in place so the cooldown gate still
// sees the signal next tick.
func (sc *Scanner) publish(ctx context.Context, record database.TokenRecord, sig *strategy.Signal) {
	log := sc.logger.With().Str("token", sig.Symbol).Str("kind", string(sig.Kind)).Logger()

	if sc.holders != nil && sc.holders.Enabled() {
		if breakdowns, err := sc.holders.GetHolderBreakdowns(ctx, sig.TokenAddress); err == nil {
			sig.Holders = &breakdowns
		}
	}

	alert := &database.AlertRecord{
		TokenAddress: sig.TokenAddress,
		SignalType:   string(sig.Kind),
		LevelPrice:   sig.Level,
		PriceAtAlert: sig.CurrentPrice,
		Timestamp:    sig.Timestamp,
	}
	if err := sc.repo.InsertAlert(ctx, alert); err != nil {
		log.Error().Err(err).Msg("alert record insert failed")
	}
	sc.mu.Lock()
	sc.status.SignalsEmitted++
	sc.mu.Unlock()

	if sc.sink == nil {
		return
	}
	messageID, err := sc.sink.PublishSignal(ctx, sig, record.LastMessageID)
	if err != nil {
		log.Error().Err(err).Msg("signal publish failed")
		return
	}
	// A zero id means no notifier actually posted; keep the old thread.
	if messageID > 0 {
		if err := sc.repo.SetLastMessageID(ctx, sig.TokenAddress, messageID); err != nil {
			log.Warn().Err(err).Msg("message id persist failed")
		}
	}
	log.Info().Float64("price", sig.CurrentPrice).Msg("signal published")
}

// recordStructure writes detected levels as telemetry. Best-effort.
func (sc *Scanner) recordStructure(ctx context.Context, address string, result *analysis.Result) {
	for _, zone := range result.Zones.Tier1 {
		if err := sc.repo.InsertMarketStructure(ctx, address, string(zone.Kind), zone.LevelPrice, zone.FinalScore); err != nil {
			sc.logger.Debug().Err(err).Msg("market structure telemetry failed")
			return
		}
	}
}

func (sc *Scanner) bumpScanned() {
	sc.mu.Lock()
	sc.status.TokensScanned++
	sc.mu.Unlock()
}

func (sc *Scanner) bumpSkipped() {
	sc.mu.Lock()
	sc.status.TokensSkipped++
	sc.mu.Unlock()
}
