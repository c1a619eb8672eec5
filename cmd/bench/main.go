package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/reportlane/reportlane/internal/layout"
	"github.com/reportlane/reportlane/internal/report"
	"github.com/reportlane/reportlane/internal/timeline"
)

const reportsPerMatch = 200

func main() {
	dir, _ := os.MkdirTemp("", "reportlane-bench-*")
	defer func() { _ = os.RemoveAll(dir) }()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	store, err := report.NewStore(filepath.Join(dir, "bench.db"), logger)
	if err != nil {
		panic(err)
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	benchStore(ctx, store, dir)
	benchLayout()
}

// synthetic builds report idx: 200 per match, spread over an hour, teams alternating.
func synthetic(idx int) report.Report {
	team := report.TeamFriendly
	if idx%2 == 1 {
		team = report.TeamEnemy
	}
	return report.Report{
		MatchID:       int64(1 + idx/reportsPerMatch),
		Time:          report.FormatClock(float64(idx%60) + float64((idx*7)%60)/60),
		Team:          team,
		Slot:          idx % 10,
		Hero:          fmt.Sprintf("hero-%d", idx%120),
		TargetSlot:    (idx * 3) % 10,
		TargetSteamID: uint64(76561198000000000 + (idx*3)%10),
		TargetHero:    fmt.Sprintf("hero-%d", (idx*3)%120),
	}
}

func benchStore(ctx context.Context, store *report.Store, dir string) {
	fmt.Println("=== STORE SCALING ===")
	fmt.Println()

	scales := []int{1000, 10000, 100000, 500000}
	written := 0
	for _, target := range scales {
		toWrite := target - written
		start := time.Now()
		batch := make([]report.Report, 0, 500)
		for i := range toWrite {
			batch = append(batch, synthetic(written+i))
			if len(batch) == cap(batch) || i == toWrite-1 {
				if err := store.Add(ctx, batch); err != nil {
					panic(err)
				}
				batch = batch[:0]
			}
		}
		written = target
		insertRate := float64(toWrite) / time.Since(start).Seconds()

		lastMatch := int64(written / reportsPerMatch)
		filter, _ := report.ParsePlayerFilter("slot_3")
		benchmarks := []struct {
			name string
			fn   func()
		}{
			{"Recent 50 matches", func() { _, _ = store.Matches(ctx, 50) }},
			{"One match", func() { _, _ = store.Query(ctx, report.QueryOpts{MatchID: lastMatch}) }},
			{"One match, player", func() { _, _ = store.Query(ctx, report.QueryOpts{MatchID: lastMatch, Filter: filter}) }},
		}

		fmt.Printf("--- %dk reports | %d matches | %.1f MB | %.0f ins/sec ---\n",
			written/1000, lastMatch, dbSizeMB(dir), insertRate)
		for _, b := range benchmarks {
			fmt.Printf("  %-22s %7.2f ms\n", b.name, avgMs(20, b.fn))
		}
		fmt.Println()
	}
}

func benchLayout() {
	fmt.Println("=== LAYOUT SCALING ===")
	fmt.Println()

	canvas := timeline.DefaultCanvas()
	params := layout.DefaultParams()
	for _, n := range []int{10, 50, 200, 1000} {
		reports := make([]report.Report, n)
		for i := range reports {
			reports[i] = synthetic(i)
		}
		chart, err := timeline.Build(reports, canvas, params)
		if err != nil {
			panic(err)
		}
		iters := 20
		if n >= 1000 {
			iters = 3
		}
		ms := avgMs(iters, func() { _, _ = timeline.Build(reports, canvas, params) })

		a, b := chart.Stats.Lanes[layout.LaneA], chart.Stats.Lanes[layout.LaneB]
		fmt.Printf("  %5d reports %9.2f ms  passes %3d/%3d  converged %v/%v  overlaps %d\n",
			n, ms, a.Iterations, b.Iterations, a.Converged, b.Converged, len(chart.Overlaps))
	}
}

func avgMs(iters int, fn func()) float64 {
	start := time.Now()
	for range iters {
		fn()
	}
	return float64(time.Since(start).Microseconds()) / float64(iters) / 1000.0
}

func dbSizeMB(dir string) float64 {
	var total int64
	for _, name := range []string{"bench.db", "bench.db-wal"} {
		if fi, err := os.Stat(filepath.Join(dir, name)); err == nil {
			total += fi.Size()
		}
	}
	return float64(total) / (1024 * 1024)
}
