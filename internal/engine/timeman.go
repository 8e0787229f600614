package engine

import (
	"time"

	"github.com/nozomi-shogi/engine/internal/shogi"
)

// USILimits contains USI "go" time control parameters (spec's four
// recognized TimeControl modes: fixed-time, main+increment with
// optional moves-to-go, byoyomi, and infinite).
type USILimits struct {
	Time      [2]time.Duration // btime, wtime (remaining time for each color)
	Inc       [2]time.Duration // binc, winc (increment per move)
	Byoyomi   time.Duration    // per-move byoyomi allotment (0 = not in byoyomi mode)
	MovesToGo int              // moves until next time control (0 = sudden death)
	MoveTime  time.Duration    // fixed time per move (overrides other time controls)
	Depth     int              // maximum search depth
	Nodes     uint64           // maximum nodes to search
	Infinite  bool             // search until stopped
	Ponder    bool             // ponder mode
}

// TimeManagerOptions are the USI setoption knobs spec's time manager
// exposes, each with the default spec.md §4.I names.
type TimeManagerOptions struct {
	OverheadMillis      int     // subtracted from every budget
	SlowMoverPercent    int     // target time *= this/100
	MaxTimeRatioPercent int     // cap single-move usage at this % of the clock
	MoveHorizon         int     // below this many plies remaining, spread time evenly
	PVStabilityBase     float64 // extra think-time multiplier per stable ply...
	PVStabilitySlope    float64 // ...below the unstable-PV horizon
	ByoyomiPeriods      int     // number of byoyomi periods available
	ByoyomiSafetyMillis int     // extra margin reserved in byoyomi mode
	EarlyFinishRatio    float64 // fraction of byoyomi period at which to return early if confident
}

// DefaultTimeManagerOptions returns spec's documented defaults.
func DefaultTimeManagerOptions() TimeManagerOptions {
	return TimeManagerOptions{
		OverheadMillis:      100,
		SlowMoverPercent:    100,
		MaxTimeRatioPercent: 80,
		MoveHorizon:         10,
		PVStabilityBase:     1.0,
		PVStabilitySlope:    0.05,
		ByoyomiPeriods:      1,
		ByoyomiSafetyMillis: 50,
		EarlyFinishRatio:    0.6,
	}
}

// TimeManager handles time allocation for searches: a soft (optimum)
// deadline the iterative-deepening loop may not start a new iteration
// past (barring PV instability), and a hard (maximum) deadline it must
// never run past.
type TimeManager struct {
	opts TimeManagerOptions

	optimumTime time.Duration
	maximumTime time.Duration
	startTime   time.Time

	byoyomiMode bool
}

// NewTimeManager creates a new time manager with the given options.
func NewTimeManager(opts TimeManagerOptions) *TimeManager {
	return &TimeManager{opts: opts}
}

// Init initializes the time manager for a new search. ply is the
// current game ply (half-move number).
func (tm *TimeManager) Init(limits USILimits, us shogi.Color, ply int) {
	tm.startTime = time.Now()
	tm.byoyomiMode = false
	overhead := time.Duration(tm.opts.OverheadMillis) * time.Millisecond

	if limits.MoveTime > 0 {
		tm.optimumTime = limits.MoveTime - overhead
		tm.maximumTime = limits.MoveTime - overhead
		tm.clampMinimum()
		return
	}

	if limits.Infinite || (limits.Time[us] == 0 && limits.Byoyomi == 0) {
		tm.optimumTime = time.Hour
		tm.maximumTime = time.Hour
		return
	}

	if limits.Time[us] == 0 && limits.Byoyomi > 0 {
		tm.byoyomiMode = true
		perPeriod := limits.Byoyomi - time.Duration(tm.opts.ByoyomiSafetyMillis)*time.Millisecond
		if perPeriod < 10*time.Millisecond {
			perPeriod = 10 * time.Millisecond
		}
		tm.optimumTime = time.Duration(float64(perPeriod) * tm.opts.EarlyFinishRatio)
		tm.maximumTime = perPeriod * time.Duration(tm.opts.ByoyomiPeriods)
		return
	}

	timeLeft := limits.Time[us]
	inc := limits.Inc[us]
	if limits.Byoyomi > 0 {
		inc += limits.Byoyomi
	}

	mtg := limits.MovesToGo
	if mtg == 0 {
		mtg = 50 - ply/4
		if mtg < 10 {
			mtg = 10
		}
		if mtg > 50 {
			mtg = 50
		}
	}
	if mtg < tm.opts.MoveHorizon {
		mtg = tm.opts.MoveHorizon
	}

	baseTime := timeLeft / time.Duration(mtg)
	baseTime += inc * 9 / 10
	baseTime = baseTime * time.Duration(tm.opts.SlowMoverPercent) / 100

	tm.optimumTime = baseTime
	if ply < 8 {
		tm.optimumTime = baseTime * 85 / 100
	}

	maxFromOptimum := tm.optimumTime * 5
	maxFromRemaining := timeLeft * time.Duration(tm.opts.MaxTimeRatioPercent) / 100
	if maxFromOptimum < maxFromRemaining {
		tm.maximumTime = maxFromOptimum
	} else {
		tm.maximumTime = maxFromRemaining
	}

	safetyMargin := timeLeft - overhead
	if tm.maximumTime > safetyMargin {
		tm.maximumTime = safetyMargin
	}

	tm.optimumTime -= overhead
	tm.clampMinimum()
}

func (tm *TimeManager) clampMinimum() {
	if tm.optimumTime < 10*time.Millisecond {
		tm.optimumTime = 10 * time.Millisecond
	}
	if tm.maximumTime < 50*time.Millisecond {
		tm.maximumTime = 50 * time.Millisecond
	}
}

// Elapsed returns the time elapsed since search started.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.startTime)
}

// OptimumTime returns the soft deadline for this move.
func (tm *TimeManager) OptimumTime() time.Duration {
	return tm.optimumTime
}

// MaximumTime returns the hard deadline for this move.
func (tm *TimeManager) MaximumTime() time.Duration {
	return tm.maximumTime
}

// ByoyomiMode reports whether the last Init call entered byoyomi mode
// (main time exhausted, searching on the per-move allotment).
func (tm *TimeManager) ByoyomiMode() bool {
	return tm.byoyomiMode
}

// ShouldStop returns true if we should stop searching immediately.
func (tm *TimeManager) ShouldStop() bool {
	return tm.Elapsed() >= tm.maximumTime
}

// PastOptimum returns true if we've exceeded the soft deadline and a
// new iterative-deepening iteration should not be started.
func (tm *TimeManager) PastOptimum() bool {
	return tm.Elapsed() >= tm.optimumTime
}

// AdjustForStability shrinks the soft deadline when the best move has
// been stable for several consecutive depths (stability counts those
// depths).
func (tm *TimeManager) AdjustForStability(stability int) {
	factor := 1.0 - tm.opts.PVStabilitySlope*float64(stability)
	floor := 1.0 - tm.opts.PVStabilityBase
	if factor < floor {
		factor = floor
	}
	if factor < 0.4 {
		factor = 0.4
	}
	if stability >= 2 {
		tm.optimumTime = time.Duration(float64(tm.optimumTime) * factor)
	}
}

// AdjustForInstability extends the soft deadline (up to the hard
// deadline) when the best move keeps changing between iterations.
func (tm *TimeManager) AdjustForInstability(changes int) {
	switch {
	case changes >= 4:
		tm.optimumTime = tm.optimumTime * 200 / 100
	case changes >= 2:
		tm.optimumTime = tm.optimumTime * 150 / 100
	default:
		return
	}
	if tm.optimumTime > tm.maximumTime {
		tm.optimumTime = tm.maximumTime
	}
}
