package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ml_signal_backtester/logx"
	"ml_signal_backtester/tui"
)

const projectName = "ml-signal-backtester"

func main() {
	var (
		mode       = flag.String("mode", "backtest", "run mode: backtest | walkforward | train")
		dataPath   = flag.String("data", "", "OHLCV CSV path")
		cfgPath    = flag.String("config", "", "optional YAML config file")
		modelDir   = flag.String("model", "", "model artifact directory (backtest reads, train writes)")
		capital    = flag.Float64("capital", 0, "initial capital (overrides config when > 0)")
		cost       = flag.Float64("cost", -1, "per-side transaction cost fraction (overrides config when >= 0)")
		slippage   = flag.Float64("slippage", -1, "slippage fraction (overrides config when >= 0)")
		fraction   = flag.Float64("fraction", 0, "capital fraction per entry (overrides config when > 0)")
		trainRatio = flag.Float64("trainratio", 0, "train split ratio (overrides config when > 0)")
		window     = flag.Int("window", 0, "feature window size (overrides config when > 0)")
		serve      = flag.Int("serve", 0, "web dashboard port (0 = disabled)")
		useTUI     = flag.Bool("tui", false, "render the live terminal dashboard")
		verbose    = flag.Bool("verbose", false, "print per-trade event blocks")
	)
	flag.Parse()

	cfg := DefaultRunConfig()
	if *cfgPath != "" {
		var err error
		cfg, err = LoadRunConfig(*cfgPath)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
	}

	// Flags win over the config file.
	if *dataPath != "" {
		cfg.DataPath = *dataPath
	}
	if *modelDir != "" {
		cfg.ModelDir = *modelDir
	}
	if *capital > 0 {
		cfg.Backtest.InitialCapital = *capital
	}
	if *cost >= 0 {
		cfg.Backtest.Cost = *cost
	}
	if *slippage >= 0 {
		cfg.Backtest.Slippage = *slippage
	}
	if *fraction > 0 {
		cfg.Backtest.PositionFraction = *fraction
	}
	if *trainRatio > 0 {
		cfg.TrainRatio = *trainRatio
	}
	if *window > 0 {
		cfg.WindowSize = *window
	}
	if *serve > 0 {
		cfg.DashboardPort = *serve
	}
	if *useTUI {
		cfg.TUI = true
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DataPath == "" {
		log.Fatalf("config: no data path (use -data or data_path in the config file)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bars, err := LoadPriceBarsCSV(cfg.DataPath)
	if err != nil {
		log.Fatalf("data: %v", err)
	}
	if len(bars) == 0 {
		log.Fatalf("data: %s holds no bars", cfg.DataPath)
	}
	logx.LogDataLoaded(cfg.DataPath, len(bars), bars[0].TimeMs, bars[len(bars)-1].TimeMs)

	if cfg.DashboardPort > 0 {
		port := FindAvailablePort(cfg.DashboardPort)
		go func() {
			if err := StartWebServer(port); err != nil {
				fmt.Println(logx.Errorf("dashboard: %v", err))
			}
		}()
	}

	if cfg.TUI {
		if err := tui.Start(ctx, tui.TUIConfig{Title: projectName, Mode: *mode, Dataset: cfg.DataPath}); err != nil {
			fmt.Println(logx.Warnf("%v", err))
		} else {
			defer tui.Stop()
		}
	}

	switch *mode {
	case "backtest":
		err = runBacktest(cfg, bars, *verbose)
	case "walkforward":
		err = runWalkForward(cfg, bars)
	case "train":
		err = runTrain(cfg, bars)
	default:
		log.Fatalf("unknown mode %q (want backtest, walkforward or train)", *mode)
	}
	if err != nil {
		SendError(err.Error())
		logx.LogRunError(err.Error())
		log.Fatalf("%s: %v", *mode, err)
	}
}

// splitFeatures fits the scorer on the leading trainRatio share of the
// feature rows and returns the fitted scorer plus the split index.
func splitFeatures(X [][]float64, y []float64, trainRatio float64) (*RidgeScorer, int, error) {
	if len(X) == 0 {
		return nil, 0, fmt.Errorf("%w: not enough bars to build features", ErrInvalidInput)
	}
	split := int(float64(len(X)) * trainRatio)
	if split < 1 || split >= len(X) {
		return nil, 0, fmt.Errorf("%w: train split %d leaves no usable train/test rows", ErrInvalidInput, split)
	}

	scorer := NewRidgeScorer()
	if err := scorer.Fit(X[:split], y[:split]); err != nil {
		return nil, 0, err
	}
	return scorer, split, nil
}

func runBacktest(cfg RunConfig, bars []PriceBar, verbose bool) error {
	start := time.Now()

	X, y, firstBar := BuildReturnFeatures(bars)
	scorer, split, err := splitFeatures(X, y, cfg.TrainRatio)
	if err != nil {
		return err
	}

	// Row j's features end at bar firstBar+j, so its signal executes on
	// the next bar. The test span then lines up one-to-one with the bars.
	testStart := firstBar + split + 1
	testBars := SliceBars(bars, testStart, len(bars))

	var kinds []SignalKind
	if cfg.ModelDir != "" {
		kinds, err = sessionSignals(cfg, scorer, X[split:], verbose)
		if err != nil {
			return err
		}
	} else {
		kinds = SignalsFromPredictions(scorer.Predict(X[split:]))
	}

	sim, err := NewSimulator(cfg.Backtest)
	if err != nil {
		return err
	}
	sim.EnableInvariants(DefaultInvariants())
	sim.OnBar(makeBarHook(cfg, len(testBars), start, verbose))

	res, err := sim.Run(kinds, testBars)
	if err != nil {
		return err
	}

	printReport(res)
	SendReport(res.Report)
	SendStatus("done", "backtest complete")
	logx.LogRunDone(len(res.Trades), time.Since(start))
	return nil
}

// sessionSignals drives the test rows through the full inference pipeline
// loaded from the artifact directory, with the fitted scorer injected as
// the model.
func sessionSignals(cfg RunConfig, scorer *RidgeScorer, rows [][]float64, verbose bool) ([]SignalKind, error) {
	art, err := LoadArtifacts(cfg.ModelDir)
	if err != nil {
		return nil, fmt.Errorf("artifacts: %w", err)
	}
	logx.LogArtifacts(cfg.ModelDir, len(art.FeatureOrder), cfg.WindowSize)

	score := func(win [][]float32) ScoreVector {
		last := win[len(win)-1]
		row := make([]float64, len(last))
		for i, v := range last {
			row[i] = float64(v)
		}
		p := scorer.Predict([][]float64{row})[0]
		return ScoreVector{Long: p, Short: -p}
	}
	sess := NewSession(art.FeatureOrder, art.Scaler, cfg.WindowSize, art.Calibrator, score)

	kinds := make([]SignalKind, 0, len(rows))
	fallbackLogged := false
	for j, row := range rows {
		fv := make(FeatureVector, len(art.FeatureOrder))
		for k, name := range art.FeatureOrder {
			if k < len(row) {
				fv[name] = row[k]
			}
		}
		sig := sess.Step(fv)
		if sig == FallbackSignal() && !fallbackLogged {
			logx.LogFallbackEvent(j + 1)
			fallbackLogged = true
		}
		if verbose {
			logx.LogSignal(j, sig.Kind.String(), sig.Confidence, ConfidenceBucket(sig.Confidence))
		}
		kinds = append(kinds, sig.Kind)
	}
	return kinds, nil
}

// makeBarHook wires progress logging, the web dashboard and the TUI into
// the per-bar callback. Throttled so hot loops stay hot.
func makeBarHook(cfg RunConfig, total int, start time.Time, verbose bool) BarHook {
	var trades int
	lastLog := start
	peak := cfg.Backtest.InitialCapital
	ddWarned := false

	return func(i int, pt EquityPoint, barTrades []Trade) {
		trades += len(barTrades)

		if pt.Equity > peak {
			peak = pt.Equity
		}
		if dd := (peak - pt.Equity) / peak; dd > 0.25 && !ddWarned {
			logx.LogDrawdownWarning(dd)
			ddWarned = true
		}

		for _, tr := range barTrades {
			SendTrade(tr)
			logx.LogTradeEvent(string(tr.Kind), tr.Price, tr.PnL)
			if verbose {
				ts := time.UnixMilli(tr.TimeMs)
				switch tr.Kind {
				case OpenLong, OpenShort:
					logx.LogEntryBlock(i, ts, string(tr.Kind), tr.Price, tr.Quantity)
				default:
					logx.LogExitBlock(i, ts, string(tr.Kind), tr.Price, tr.PnL)
				}
			}
		}
		SendEquityPoint(pt)

		now := time.Now()
		if now.Sub(lastLog) < 500*time.Millisecond && i != total-1 {
			return
		}
		lastLog = now

		elapsed := now.Sub(start)
		rate := float64(i+1) / elapsed.Seconds()
		if !cfg.TUI {
			logx.LogBacktestProgress(i+1, total, pt.Equity, trades, rate)
		}
		SendProgress(i+1, total, pt.Equity, trades, elapsed)
		tui.PushState(tui.StateSnapshot{
			ProjectName:   projectName,
			Mode:          "backtest",
			Dataset:       cfg.DataPath,
			StartTime:     start,
			BarsProcessed: int64(i + 1),
			TotalBars:     int64(total),
			RatePerSec:    rate,
			Equity:        pt.Equity,
			Position:      pt.Position,
			TradeCount:    trades,
		})
	}
}

func runWalkForward(cfg RunConfig, bars []PriceBar) error {
	X, y, _ := BuildReturnFeatures(bars)
	if len(X) == 0 {
		return fmt.Errorf("%w: not enough bars to build features", ErrInvalidInput)
	}

	acc, err := WalkForwardValidate(X, y, cfg.TrainRatio, NewRidgeScorer())
	if err != nil {
		return err
	}

	split := int(float64(len(X)) * cfg.TrainRatio)
	logx.LogWalkForward(split, len(X)-split, acc)
	logx.LogFoldEvent(1, acc)

	w := logx.StdoutTable()
	logx.PrintReportRow(w, "Train rows", logx.FormatNumberSimple(split))
	logx.PrintReportRow(w, "Test rows", logx.FormatNumberSimple(len(X)-split))
	logx.PrintReportRow(w, "OOS accuracy", fmt.Sprintf("%.4f", acc))
	w.Flush()
	return nil
}

// runTrain fits the scorer and the two calibration curves on the train
// split and writes the artifact set for later backtest runs.
func runTrain(cfg RunConfig, bars []PriceBar) error {
	if cfg.ModelDir == "" {
		return fmt.Errorf("%w: train mode needs a model directory (-model)", ErrConfiguration)
	}

	X, y, _ := BuildReturnFeatures(bars)
	scorer, split, err := splitFeatures(X, y, cfg.TrainRatio)
	if err != nil {
		return err
	}

	// Calibrate on the train span: each prediction's long/short margin
	// against whether the realized next-bar return went that way.
	preds := scorer.Predict(X[:split])
	longX := make([]float64, split)
	longY := make([]float64, split)
	shortX := make([]float64, split)
	shortY := make([]float64, split)
	for i, p := range preds {
		longX[i] = p
		shortX[i] = -p
		if y[i] > 0 {
			longY[i] = 1
		}
		if y[i] < 0 {
			shortY[i] = 1
		}
	}

	longCurve, err := FitIsotonic(longX, longY)
	if err != nil {
		return err
	}
	shortCurve, err := FitIsotonic(shortX, shortY)
	if err != nil {
		return err
	}

	names := ReturnFeatureNames()
	art := ModelArtifacts{
		FeatureOrder: names,
		Scaler:       IdentityScaler(len(names)),
		Calibrator:   Calibrator{LongCurve: longCurve, ShortCurve: shortCurve},
	}
	if err := SaveArtifacts(cfg.ModelDir, art); err != nil {
		return err
	}
	logx.LogArtifacts(cfg.ModelDir, len(names), cfg.WindowSize)
	return nil
}

func printReport(res BacktestResult) {
	r := res.Report

	fmt.Println()
	fmt.Println(logx.Highlight("Backtest report"))
	w := logx.StdoutTable()
	logx.PrintReportRow(w, "Initial capital", fmt.Sprintf("%.2f", r.InitialCapital))
	logx.PrintReportRow(w, "Final capital", fmt.Sprintf("%.2f", r.FinalCapital))
	logx.PrintReportRow(w, "Total return", logx.ReturnColor(r.TotalReturn))
	logx.PrintReportRow(w, "Sharpe ratio", logx.SharpeColor(r.SharpeRatio))
	logx.PrintReportRow(w, "Max drawdown", logx.DDColor(r.MaxDrawdown))
	logx.PrintReportRow(w, "Win rate", logx.WinRateColor(r.WinRate))
	logx.PrintReportRow(w, "Profit factor", fmt.Sprintf("%.2f", r.ProfitFactor))
	logx.PrintReportRow(w, "Trades", logx.FormatNumberSimple(r.TotalTrades))
	w.Flush()

	if len(res.Trades) == 0 {
		return
	}
	fmt.Println()
	tw := logx.StdoutTable()
	logx.PrintTradeHeader(tw)
	for i, tr := range res.Trades {
		logx.PrintTradeRow(tw, i, tr.TimeMs, string(tr.Kind), tr.Price, tr.Quantity, tr.PnL)
	}
	tw.Flush()

	_ = os.Stdout.Sync()
}
