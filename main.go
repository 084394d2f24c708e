package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"lighter-trading-bot/client"
	"lighter-trading-bot/ledger"
	"lighter-trading-bot/marketdata"
	"lighter-trading-bot/signer"
	"lighter-trading-bot/strategy"
)

// Lighter Trading Bot Configuration
type TradingConfig struct {
	// Lighter Configuration
	PrivateKeyHex string `json:"private_key_hex"`
	BaseURL       string `json:"base_url"`
	WSURL         string `json:"ws_url"`
	AccountIndex  int64  `json:"account_index"`
	APIKeyIndex   int64  `json:"api_key_index"`

	// Trading Configuration
	Markets      []string `json:"markets"`
	MaxPositions int      `json:"max_positions"`
	RiskPerTrade float64  `json:"risk_per_trade"`
	StopDistance float64  `json:"stop_distance"`

	// Timing
	CycleInterval time.Duration `json:"cycle_interval"`

	// Monitoring
	EnableStream  bool `json:"enable_stream"`
	EnableLogging bool `json:"enable_logging"`
}

// Default configuration for Lighter trading
func DefaultTradingConfig() *TradingConfig {
	return &TradingConfig{
		BaseURL:       "https://mainnet.zklighter.elliot.ai",
		WSURL:         "wss://mainnet.zklighter.elliot.ai/stream",
		Markets:       []string{"ETH", "BTC"},
		MaxPositions:  3,
		RiskPerTrade:  0.02, // 2% of balance at risk per trade
		StopDistance:  0.02, // 2% synthetic adverse move for sizing
		CycleInterval: 30 * time.Second,
		EnableStream:  true,
		EnableLogging: true,
	}
}

// TradingBot wires the session client, ledger, stream, and strategy
// loop together. One strategy cycle runs at a time: the run loop is a
// single goroutine, which is what keeps the client's nonce counter and
// the ledger safe without internal locks.
type TradingBot struct {
	config *TradingConfig

	client *client.Client
	ledger *ledger.Ledger
	engine *strategy.Engine
	stream *marketdata.Stream

	// Display state fed by the stream
	lastTops map[string]marketdata.BookTop
	stateMu  sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc

	startTime time.Time
}

// Create new Lighter trading bot
func NewTradingBot(config *TradingConfig, logger *zap.Logger) (*TradingBot, error) {
	if config.PrivateKeyHex == "" {
		return nil, fmt.Errorf("private key is required")
	}

	log.Printf("🚀 Initializing Lighter Trading Bot...")

	// 1. Signing identity, created once and shared by every signing path
	identity, err := signer.FromPrivateKeyHex(config.PrivateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to load signing identity: %w", err)
	}

	// 2. Session client for both public and authenticated calls
	clientConfig := client.DefaultConfig()
	clientConfig.BaseURL = config.BaseURL
	clientConfig.AccountIndex = config.AccountIndex
	clientConfig.APIKeyIndex = config.APIKeyIndex
	clientConfig.EnableLogging = config.EnableLogging

	session, err := client.NewClient(clientConfig, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to create session client: %w", err)
	}

	// 3. Ledger over the authenticated account fetch
	book := ledger.New(session)

	// 4. Strategy engine
	strategyConfig := strategy.DefaultConfig()
	strategyConfig.Markets = config.Markets
	strategyConfig.MaxPositions = config.MaxPositions
	strategyConfig.RiskPerTrade = config.RiskPerTrade
	strategyConfig.StopDistance = config.StopDistance

	engine := strategy.NewEngine(strategyConfig, logger, session, session, book)

	// 5. Order book stream for monitoring
	var stream *marketdata.Stream
	if config.EnableStream {
		streamConfig := marketdata.DefaultConfig()
		streamConfig.WSURL = config.WSURL
		streamConfig.Markets = config.Markets
		streamConfig.EnableLogging = config.EnableLogging
		stream = marketdata.NewStream(streamConfig)
	}

	ctx, cancel := context.WithCancel(context.Background())

	bot := &TradingBot{
		config:    config,
		client:    session,
		ledger:    book,
		engine:    engine,
		stream:    stream,
		lastTops:  make(map[string]marketdata.BookTop),
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}

	if stream != nil {
		stream.SetBookCallback(func(top marketdata.BookTop) {
			bot.stateMu.Lock()
			bot.lastTops[top.Market] = top
			bot.stateMu.Unlock()
		})
	}

	return bot, nil
}

// Start the trading bot
func (bot *TradingBot) Start() error {
	log.Printf("🚀 Starting Lighter Trading Bot...")
	log.Printf("🔑 Signing address: %s", bot.client.Address())

	// The nonce sequencer must be synced before the first reservation
	nonce, err := bot.client.FetchNextNonce()
	if err != nil {
		return fmt.Errorf("failed to fetch initial nonce: %w", err)
	}
	log.Printf("🔢 Initial nonce: %d", nonce)

	if bot.stream != nil {
		if err := bot.stream.Start(); err != nil {
			// Stream is monitoring-only; trading continues on REST
			log.Printf("⚠️  Order book stream unavailable: %v", err)
			bot.stream = nil
		}
	}

	go bot.runLoop()
	go bot.performanceMonitor()

	log.Printf("✅ Lighter Trading Bot started successfully!")
	log.Printf("📊 Markets: %s", strings.Join(bot.config.Markets, ", "))
	log.Printf("💰 Risk per trade: %.1f%%", bot.config.RiskPerTrade*100)
	log.Printf("🛡️  Max positions: %d", bot.config.MaxPositions)

	return nil
}

// Stop the trading bot
func (bot *TradingBot) Stop() error {
	log.Printf("🛑 Stopping Lighter Trading Bot...")

	bot.cancel()
	if bot.stream != nil {
		if err := bot.stream.Stop(); err != nil {
			log.Printf("⚠️  Stream shutdown: %v", err)
		}
	}

	bot.printFinalReport()
	return nil
}

// Main strategy loop: strictly serialized cycles. The next cycle only
// starts after the previous one has fully completed.
func (bot *TradingBot) runLoop() {
	ticker := time.NewTicker(bot.config.CycleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-bot.ctx.Done():
			return
		case <-ticker.C:
			bot.runCycle()
		}
	}
}

// isNonceDesync matches a NonceDesyncError anywhere in the chain, so
// wrapped gateway errors still trigger a resync.
func isNonceDesync(err error) bool {
	var desync *client.NonceDesyncError
	return errors.As(err, &desync)
}

func (bot *TradingBot) runCycle() {
	result, err := bot.engine.RunCycle()
	if err != nil {
		log.Printf("❌ Cycle failed: %v", err)
		return
	}

	for _, cycleErr := range result.Errors {
		log.Printf("⚠️  %s: %v", cycleErr.Market, cycleErr.Err)

		// A rejected nonce parks the sequencer; resync before the
		// next cycle reserves again
		if isNonceDesync(cycleErr.Err) {
			if _, err := bot.client.FetchNextNonce(); err != nil {
				log.Printf("❌ Nonce resync failed: %v", err)
			}
		}
	}

	if result.Trades > 0 {
		log.Printf("✅ Cycle complete: %d order(s) submitted", result.Trades)
	}
}

// Performance monitoring
func (bot *TradingBot) performanceMonitor() {
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-bot.ctx.Done():
			return
		case <-ticker.C:
			bot.printPerformanceUpdate()
		}
	}
}

// Print performance update
func (bot *TradingBot) printPerformanceUpdate() {
	metrics := bot.engine.GetPerformanceMetrics()

	bot.stateMu.RLock()
	topInfo := "no stream data"
	if len(bot.lastTops) > 0 {
		parts := make([]string, 0, len(bot.lastTops))
		for market, top := range bot.lastTops {
			parts = append(parts, fmt.Sprintf("%s %.2f/%.2f", market, top.BestBid, top.BestAsk))
		}
		topInfo = strings.Join(parts, " | ")
	}
	bot.stateMu.RUnlock()

	log.Printf(`
📊 Lighter Bot Performance Update:
├─ Uptime: %v
├─ Cycles: %d
├─ Markets Analyzed: %d
├─ Orders Submitted: %d
├─ Failures: %d
├─ Signals: bullish=%d bearish=%d neutral=%d
└─ Stream: %s`,
		metrics.Uptime.Truncate(time.Second),
		metrics.Cycles,
		metrics.MarketsAnalyzed,
		metrics.OrdersSubmitted,
		metrics.Failures,
		metrics.SignalCounts[strategy.SignalBullish],
		metrics.SignalCounts[strategy.SignalBearish],
		metrics.SignalCounts[strategy.SignalNeutral],
		topInfo)
}

// Print final performance report
func (bot *TradingBot) printFinalReport() {
	metrics := bot.engine.GetPerformanceMetrics()
	uptime := time.Since(bot.startTime)

	cyclesPerHour := 0.0
	if uptime.Hours() > 0 {
		cyclesPerHour = float64(metrics.Cycles) / uptime.Hours()
	}

	log.Printf(`
🎯 FINAL LIGHTER TRADING REPORT:
━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━

📊 Session Performance:
├─ Total Runtime: %v
├─ Cycles Run: %d
├─ Cycles per Hour: %.1f
├─ Markets Analyzed: %d
├─ Orders Submitted: %d
└─ Failures: %d

📈 Signal Breakdown:
├─ Bullish: %d
├─ Bearish: %d
└─ Neutral: %d

✅ Lighter Trading Session Complete
━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━`,
		uptime.Truncate(time.Second),
		metrics.Cycles,
		cyclesPerHour,
		metrics.MarketsAnalyzed,
		metrics.OrdersSubmitted,
		metrics.Failures,
		metrics.SignalCounts[strategy.SignalBullish],
		metrics.SignalCounts[strategy.SignalBearish],
		metrics.SignalCounts[strategy.SignalNeutral])
}

// Load configuration from environment variables
func loadConfigFromEnv() *TradingConfig {
	config := DefaultTradingConfig()

	if privateKey := os.Getenv("LIGHTER_PRIVATE_KEY"); privateKey != "" {
		trimmedKey := strings.TrimSpace(privateKey)
		trimmedKey = strings.Trim(trimmedKey, "\"")
		trimmedKey = strings.Trim(trimmedKey, "'")
		config.PrivateKeyHex = trimmedKey
	}

	if baseURL := os.Getenv("LIGHTER_BASE_URL"); baseURL != "" {
		config.BaseURL = baseURL
	}

	if wsURL := os.Getenv("LIGHTER_WS_URL"); wsURL != "" {
		config.WSURL = wsURL
	}

	if accountIndex := os.Getenv("LIGHTER_ACCOUNT_INDEX"); accountIndex != "" {
		if val, err := strconv.ParseInt(accountIndex, 10, 64); err == nil {
			config.AccountIndex = val
		}
	}

	if apiKeyIndex := os.Getenv("LIGHTER_API_KEY_INDEX"); apiKeyIndex != "" {
		if val, err := strconv.ParseInt(apiKeyIndex, 10, 64); err == nil {
			config.APIKeyIndex = val
		}
	}

	if markets := os.Getenv("TRADING_MARKETS"); markets != "" {
		parts := strings.Split(markets, ",")
		parsed := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				parsed = append(parsed, trimmed)
			}
		}
		if len(parsed) > 0 {
			config.Markets = parsed
		}
	}

	if maxPositions := os.Getenv("MAX_POSITIONS"); maxPositions != "" {
		if val, err := strconv.Atoi(maxPositions); err == nil && val > 0 {
			config.MaxPositions = val
		}
	}

	if riskPerTrade := os.Getenv("RISK_PER_TRADE"); riskPerTrade != "" {
		if val, err := strconv.ParseFloat(riskPerTrade, 64); err == nil && val > 0 {
			config.RiskPerTrade = val
		}
	}

	if stopDistance := os.Getenv("STOP_DISTANCE"); stopDistance != "" {
		if val, err := strconv.ParseFloat(stopDistance, 64); err == nil && val > 0 {
			config.StopDistance = val
		}
	}

	if cycleInterval := os.Getenv("CYCLE_INTERVAL_SEC"); cycleInterval != "" {
		if val, err := strconv.Atoi(cycleInterval); err == nil && val > 0 {
			config.CycleInterval = time.Duration(val) * time.Second
		}
	}

	if enableStream := os.Getenv("ENABLE_STREAM"); enableStream != "" {
		config.EnableStream = enableStream == "true"
	}

	return config
}

// Main function to run the Lighter trading bot
func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	// Load environment variables from .env file
	if err := godotenv.Overload(); err != nil {
		log.Printf("ℹ️ Info: no .env file loaded (will rely on existing env vars): %v", err)
	}

	log.Printf("🚀 Lighter Perpetuals Trading Bot v1.0")
	log.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	config := loadConfigFromEnv()

	if config.PrivateKeyHex == "" {
		log.Printf("❌ ERROR: LIGHTER_PRIVATE_KEY environment variable not set!")
		log.Printf("Please set your private key:")
		log.Printf("export LIGHTER_PRIVATE_KEY=\"your_private_key_here\"")
		log.Printf("or add it to your .env file")
		return
	}

	log.Printf("📋 Configuration:")
	log.Printf("├─ Markets: %s", strings.Join(config.Markets, ", "))
	log.Printf("├─ Account Index: %d", config.AccountIndex)
	log.Printf("├─ API Key Index: %d", config.APIKeyIndex)
	log.Printf("├─ Max Positions: %d", config.MaxPositions)
	log.Printf("├─ Risk per Trade: %.1f%%", config.RiskPerTrade*100)
	log.Printf("├─ Cycle Interval: %v", config.CycleInterval)
	log.Printf("└─ Stream: %v", config.EnableStream)

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("❌ Failed to create logger: %v", err)
	}
	defer logger.Sync()

	bot, err := NewTradingBot(config, logger)
	if err != nil {
		log.Fatalf("❌ Failed to create trading bot: %v", err)
	}

	if err := bot.Start(); err != nil {
		log.Fatalf("❌ Failed to start trading bot: %v", err)
	}

	// Set up graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	log.Printf("✅ Lighter Trading Bot is now LIVE!")
	log.Printf("📊 Monitoring market conditions and executing trades...")
	log.Printf("🛑 Press Ctrl+C to stop the bot")

	<-c

	log.Printf("🛑 Shutdown signal received, stopping bot...")
	if err := bot.Stop(); err != nil {
		log.Printf("❌ Error stopping bot: %v", err)
	}

	log.Printf("✅ Trading bot stopped successfully. Goodbye! 👋")
}
