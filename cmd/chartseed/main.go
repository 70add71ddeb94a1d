// cmd/chartseed populates the chart history database with synthetic
// price samples, daily closes, and catalyst events, so the server and the
// offline renderer have something to draw without a real data import.
//
// Usage:
//
//	go run ./cmd/chartseed --db=data/chart.db --symbol=AAPL --days=30
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"chart-systemv1/internal/markethours"
	"chart-systemv1/internal/model"
	sqlitestore "chart-systemv1/internal/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	dbPath := flag.String("db", "data/chart.db", "Path to SQLite database")
	symbol := flag.String("symbol", "AAPL", "Symbol to seed")
	days := flag.Int("days", 30, "Trading days of history to generate")
	startPrice := flag.Float64("price", 100.0, "Starting price")
	stepMin := flag.Int("step", 5, "Minutes between intraday samples")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	flag.Parse()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	writer, err := sqlitestore.NewWriter(sqlitestore.WriterConfig{DBPath: *dbPath})
	if err != nil {
		log.Fatalf("[chartseed] sqlite open failed: %v", err)
	}
	defer writer.Close()

	price := *startPrice
	day := time.Now().In(markethours.ET)
	written := 0
	closes := 0

	// Collect the most recent trading days, then generate oldest first so the
	// random walk runs forward in time.
	var tradingDays []time.Time
	for d := day; len(tradingDays) < *days; d = d.AddDate(0, 0, -1) {
		if markethours.IsTradingDay(d) {
			tradingDays = append(tradingDays, d)
		}
	}
	for i := len(tradingDays) - 1; i >= 0; i-- {
		d := tradingDays[i]
		ctx := markethours.DayContext(d)
		var samples []model.PriceSample
		for t := ctx.PreMarketStart; t.Before(ctx.AfterHoursEnd); t = t.Add(time.Duration(*stepMin) * time.Minute) {
			price = walkPrice(price, rng)
			samples = append(samples, model.PriceSample{TS: t.UTC(), Price: price})
		}
		if err := writer.InsertSamples(*symbol, samples); err != nil {
			log.Fatalf("[chartseed] insert samples: %v", err)
		}
		written += len(samples)

		midnight := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, markethours.ET)
		if err := writer.SetDailyClose(*symbol, midnight.Unix(), price); err != nil {
			log.Fatalf("[chartseed] set daily close: %v", err)
		}
		closes++
	}

	events := makeCatalysts(*symbol, day, rng)
	if err := writer.InsertCatalysts(events); err != nil {
		log.Fatalf("[chartseed] insert catalysts: %v", err)
	}

	log.Printf("[chartseed] seeded %s: %d samples, %d daily closes, %d catalysts (seed=%d)",
		*symbol, written, closes, len(events), *seed)
}

// walkPrice applies a small random walk (about ±0.2%) per step.
func walkPrice(price float64, rng *rand.Rand) float64 {
	pct := (rng.Float64()*0.4 - 0.2) / 100.0
	next := price * (1 + pct)
	if next < 0.01 {
		next = 0.01
	}
	return next
}

// makeCatalysts scatters a few upcoming events over the next quarter.
func makeCatalysts(symbol string, from time.Time, rng *rand.Rand) []model.CatalystEvent {
	types := []model.EventType{
		model.EventEarnings, model.EventDividend, model.EventRegulatory, model.EventMacro,
	}
	titles := map[model.EventType]string{
		model.EventEarnings:   "Quarterly earnings release",
		model.EventDividend:   "Ex-dividend date",
		model.EventRegulatory: "Regulatory filing deadline",
		model.EventMacro:      "FOMC rate decision",
	}

	var events []model.CatalystEvent
	for i := 0; i < 6; i++ {
		typ := types[rng.Intn(len(types))]
		ts := from.AddDate(0, 0, 3+rng.Intn(85))
		events = append(events, model.CatalystEvent{
			ID:     fmt.Sprintf("%s-%d-%d", symbol, ts.Unix(), i),
			Symbol: symbol,
			TS:     ts.UTC(),
			Type:   typ,
			Title:  titles[typ],
		})
	}
	return events
}
