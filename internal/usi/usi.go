// Package usi implements the USI (Universal Shogi Interface) protocol
// adapter (spec.md §6.1): the command parser, option handling, and
// bestmove/info emission around internal/engine's search core. It is an
// external collaborator, not part of the search/evaluation core itself.
package usi

import (
	"bufio"
	"fmt"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/op/go-logging"

	"github.com/nozomi-shogi/engine/internal/engine"
	"github.com/nozomi-shogi/engine/internal/shogi"
)

var log = logging.MustGetLogger("usi")

// engineName/engineAuthor identify this engine to the USI "usi" handshake.
const (
	engineName   = "Nozomi"
	engineAuthor = "Nozomi Shogi Project"
)

// USI drives the engine through the USI protocol over stdin/stdout.
// "info string" lines are the protocol diagnostics channel; the logger
// (stderr) is the separate internal-diagnostics channel spec.md §7
// describes — the two are never merged so a GUI never sees log noise on
// stdout.
type USI struct {
	engine   *engine.Engine
	position *shogi.Position

	// positionHashes is the game history (oldest first) fed to the
	// engine for sennichite detection, spec.md §4.G.
	positionHashes []uint64

	nnueEvalFile string

	searching     bool
	searchDone    chan struct{}
	stopRequested atomic.Bool

	ponderLimits engine.USILimits
	ponderPly    int
	ponderColor  shogi.Color
	pondering    bool

	// multiPV is the session-wide PV-line count set by "setoption name
	// MultiPV", consumed by the next "go" command (spec.md §6.1).
	multiPV int

	profileFile *os.File
}

// New creates a USI handler around eng.
func New(eng *engine.Engine) *USI {
	return &USI{
		engine:   eng,
		position: shogi.NewPosition(),
		multiPV:  1,
	}
}

// Run reads commands from stdin until "quit" or EOF.
func (u *USI) Run() {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		cmd := fields[0]
		args := fields[1:]

		switch cmd {
		case "usi":
			u.handleUSI()
		case "isready":
			fmt.Println("readyok")
		case "usinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(args)
		case "stop":
			u.handleStop()
		case "ponderhit":
			u.handlePonderhit()
		case "gameover":
			u.handleGameover(args)
		case "setoption":
			u.handleSetOption(args)
		case "quit":
			u.handleQuit()
			return
		case "d":
			fmt.Println(u.position.String())
		default:
			log.Warningf("unrecognized command %q", cmd)
		}
	}
}

// handleUSI responds to the "usi" handshake with engine identity and
// the option list (spec.md §6.1's non-exhaustive set).
func (u *USI) handleUSI() {
	fmt.Printf("id name %s\n", engineName)
	fmt.Printf("id author %s\n", engineAuthor)
	fmt.Println("option name USI_Hash type spin default 64 min 1 max 8192")
	fmt.Println("option name USI_Ponder type check default true")
	fmt.Println("option name Threads type spin default 1 min 1 max 256")
	fmt.Println("option name MultiPV type spin default 1 min 1 max 20")
	fmt.Println("option name MinThinkMs type spin default 0 min 0 max 10000")
	fmt.Println("option name EvalFile type filename default <empty>")
	fmt.Println("option name BookFile type filename default <empty>")
	fmt.Println("option name ClearHash type button")
	fmt.Println("option name QSearchChecks type combo default On var On var Off")
	fmt.Println("option name Debug.CPUProfile type filename default <empty>")
	fmt.Println("usiok")
}

// handleNewGame resets search state for a fresh game.
func (u *USI) handleNewGame() {
	u.engine.Clear()
	u.position = shogi.NewPosition()
	u.positionHashes = []uint64{u.position.Hash()}
}

// handlePosition parses "position [startpos | sfen <sfen>] [moves ...]"
// (spec.md §6.3). A parse error leaves the position at its previous
// state, per spec.md §7.
func (u *USI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	var pos *shogi.Position
	var moveStart int

	switch args[0] {
	case "startpos":
		pos = shogi.NewPosition()
		moveStart = 1
	case "sfen":
		fenEnd := len(args)
		for i, a := range args[1:] {
			if a == "moves" {
				fenEnd = i + 1
				break
			}
		}
		sfen := strings.Join(args[1:fenEnd], " ")
		pos = &shogi.Position{}
		if err := pos.SetSFEN(sfen); err != nil {
			log.Errorf("invalid sfen %q: %v", sfen, err)
			return
		}
		moveStart = fenEnd + 1
	default:
		log.Errorf("unrecognized position kind %q", args[0])
		return
	}

	for i, a := range args {
		if a == "moves" {
			moveStart = i + 1
			break
		}
	}

	hashes := []uint64{pos.Hash()}
	if moveStart < len(args) {
		for _, s := range args[moveStart:] {
			m, err := shogi.ParseUSIMove(s)
			if err != nil || !pos.LegalMoves().Contains(m) {
				log.Errorf("illegal or unparsable move %q in position command", s)
				return
			}
			pos.DoMove(m)
			hashes = append(hashes, pos.Hash())
		}
	}

	u.position = pos
	u.positionHashes = hashes
}

// GoOptions holds the parsed fields of a "go" command.
type GoOptions struct {
	Limits engine.USILimits
	Ponder bool
}

func (u *USI) parseGoArgs(args []string) GoOptions {
	var opts GoOptions

	next := func(i int) (string, bool) {
		if i+1 < len(args) {
			return args[i+1], true
		}
		return "", false
	}
	atoi := func(s string) int { n, _ := strconv.Atoi(s); return n }
	atoiU64 := func(s string) uint64 { n, _ := strconv.ParseUint(s, 10, 64); return n }
	millis := func(s string) time.Duration { return time.Duration(atoi(s)) * time.Millisecond }

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "ponder":
			opts.Ponder = true
		case "infinite":
			opts.Limits.Infinite = true
		case "depth":
			if s, ok := next(i); ok {
				opts.Limits.Depth = atoi(s)
				i++
			}
		case "nodes":
			if s, ok := next(i); ok {
				opts.Limits.Nodes = atoiU64(s)
				i++
			}
		case "movetime":
			if s, ok := next(i); ok {
				opts.Limits.MoveTime = millis(s)
				i++
			}
		case "btime":
			if s, ok := next(i); ok {
				opts.Limits.Time[shogi.Black] = millis(s)
				i++
			}
		case "wtime":
			if s, ok := next(i); ok {
				opts.Limits.Time[shogi.White] = millis(s)
				i++
			}
		case "binc":
			if s, ok := next(i); ok {
				opts.Limits.Inc[shogi.Black] = millis(s)
				i++
			}
		case "winc":
			if s, ok := next(i); ok {
				opts.Limits.Inc[shogi.White] = millis(s)
				i++
			}
		case "byoyomi":
			if s, ok := next(i); ok {
				opts.Limits.Byoyomi = millis(s)
				i++
			}
		case "movestogo":
			if s, ok := next(i); ok {
				opts.Limits.MovesToGo = atoi(s)
				i++
			}
		}
	}
	return opts
}

// handleGo starts a search in its own goroutine and prints exactly one
// "bestmove" line when it finishes (spec.md §6.1's one-per-go contract).
// When MultiPV > 1 it delegates to handleGoMultiPV instead of the normal
// single-line search below, since SearchMultiPV reports its lines as a
// single batch rather than streaming them through OnInfo.
func (u *USI) handleGo(args []string) {
	opts := u.parseGoArgs(args)

	if u.multiPV > 1 && !opts.Ponder {
		u.handleGoMultiPV(opts)
		return
	}

	u.engine.SetPositionHistory(u.positionHashes)
	u.engine.OnInfo = u.sendInfo

	pos := u.position.Clone()
	ply := len(u.positionHashes)
	us := pos.SideToMove()

	searchLimits := opts.Limits
	u.pondering = opts.Ponder
	if opts.Ponder {
		u.ponderLimits = opts.Limits
		u.ponderPly = ply
		u.ponderColor = us
		searchLimits = engine.USILimits{Infinite: true, Ponder: true}
	}

	u.searching = true
	u.stopRequested.Store(false)
	u.searchDone = make(chan struct{})

	validationPos := u.position

	go func() {
		defer close(u.searchDone)

		bestMove := u.engine.SearchWithUSILimits(pos, searchLimits, ply)
		u.searching = false
		u.pondering = false

		legal := validationPos.LegalMoves()
		if !bestMove.IsNull() && legal.Contains(bestMove) {
			fmt.Printf("bestmove %s\n", bestMove)
			return
		}
		if legal.Len() == 0 {
			fmt.Println("bestmove resign")
			return
		}
		log.Warningf("search returned %s, not legal in current position; falling back", bestMove)
		fmt.Printf("bestmove %s\n", legal.Get(0))
	}()
}

// handleGoMultiPV runs engine.SearchMultiPV to find u.multiPV principal
// variations (spec.md §2 row G, §6.1). SearchMultiPV runs the primary
// worker alone to completion rather than streaming iterations, so unlike
// the single-PV path above there is one batch of "info multipv" lines
// per line found, emitted once the whole call returns, followed by a
// single "bestmove" naming the top-scoring line's move.
//
// USILimits' btime/wtime/inc/byoyomi time controls have no direct
// SearchLimits equivalent (searchWithExclusions only understands a flat
// depth/nodes/movetime budget); when "go" supplies only a clock rather
// than an explicit depth/nodes/movetime, a TimeManager computes the
// single-move budget searchWithExclusions uses for every PV line.
func (u *USI) handleGoMultiPV(opts GoOptions) {
	u.engine.SetPositionHistory(u.positionHashes)
	u.engine.OnInfo = nil

	pos := u.position.Clone()
	ply := len(u.positionHashes)

	limits := engine.SearchLimits{
		Depth:    opts.Limits.Depth,
		Nodes:    opts.Limits.Nodes,
		MoveTime: opts.Limits.MoveTime,
		Infinite: opts.Limits.Infinite,
		MultiPV:  u.multiPV,
	}
	if limits.Depth == 0 && limits.Nodes == 0 && limits.MoveTime == 0 && !limits.Infinite {
		tm := engine.NewTimeManager(engine.DefaultTimeManagerOptions())
		tm.Init(opts.Limits, pos.SideToMove(), ply)
		limits.MoveTime = tm.OptimumTime()
	}

	u.searching = true
	u.stopRequested.Store(false)
	u.searchDone = make(chan struct{})

	validationPos := u.position

	go func() {
		defer close(u.searchDone)

		results := u.engine.SearchMultiPV(pos, limits)
		u.searching = false

		for i, r := range results {
			u.sendInfo(engine.SearchInfo{
				Depth:   r.Depth,
				Score:   r.Score,
				Nodes:   r.Nodes,
				PV:      r.PV,
				MultiPV: i + 1,
			})
		}

		if len(results) == 0 {
			legal := validationPos.LegalMoves()
			if legal.Len() == 0 {
				fmt.Println("bestmove resign")
				return
			}
			fmt.Printf("bestmove %s\n", legal.Get(0))
			return
		}
		fmt.Printf("bestmove %s\n", results[0].Move)
	}()
}

// handleStop requests the running search stop and waits for its
// bestmove, honoring the "within grace_ms" contract of spec.md §4.I.
func (u *USI) handleStop() {
	if u.searching {
		u.stopRequested.Store(true)
		u.engine.Stop()
		<-u.searchDone
	}
}

// handlePonderhit converts an in-flight ponder search into a real one by
// reconfiguring its time manager in place (spec.md §4.I).
func (u *USI) handlePonderhit() {
	if !u.pondering {
		return
	}
	u.engine.Ponderhit(u.ponderLimits, u.ponderColor, u.ponderPly)
	u.pondering = false
}

// handleGameover acknowledges game-result notifications. The engine
// holds no persisted state across games (SPEC_FULL §6.J), so there is
// nothing to update beyond logging.
func (u *USI) handleGameover(args []string) {
	result := "unknown"
	if len(args) > 0 {
		result = args[0]
	}
	log.Infof("game over: %s", result)
}

// handleQuit stops any running search and closes any open CPU profile.
func (u *USI) handleQuit() {
	u.handleStop()
	if u.profileFile != nil {
		pprof.StopCPUProfile()
		u.profileFile.Close()
		u.profileFile = nil
	}
}

// handleSetOption processes "setoption name <name> value <value>".
func (u *USI) handleSetOption(args []string) {
	var name, value string
	var readingName, readingValue bool

	for _, a := range args {
		switch a {
		case "name":
			readingName, readingValue = true, false
		case "value":
			readingName, readingValue = false, true
		default:
			if readingName {
				name = appendWord(name, a)
			} else if readingValue {
				value = appendWord(value, a)
			}
		}
	}

	switch strings.ToLower(name) {
	case "usi_hash":
		if mb, err := strconv.Atoi(value); err == nil && mb > 0 && !u.searching {
			u.engine.Resize(mb)
		}
	case "threads":
		if n, err := strconv.Atoi(value); err == nil && n > 0 && !u.searching {
			u.engine.SetThreads(n)
		}
	case "multipv":
		if n, err := strconv.Atoi(value); err == nil && n >= 1 {
			u.multiPV = n
		}
	case "evalfile":
		u.nnueEvalFile = value
		if value != "" {
			if err := u.engine.LoadNNUE(value); err != nil {
				log.Errorf("failed to load NNUE weights from %s: %v", value, err)
				return
			}
			u.engine.SetUseNNUE(true)
		}
	case "bookfile":
		if value != "" {
			if err := u.engine.LoadBook(value); err != nil {
				log.Errorf("failed to load book from %s: %v", value, err)
			}
		}
	case "clearhash":
		u.engine.Clear()
	case "debug.cpuprofile":
		if u.profileFile != nil {
			pprof.StopCPUProfile()
			u.profileFile.Close()
			u.profileFile = nil
		}
		if value != "" && value != "stop" {
			f, err := os.Create(value)
			if err != nil {
				log.Errorf("failed to create cpu profile %s: %v", value, err)
				return
			}
			if err := pprof.StartCPUProfile(f); err != nil {
				f.Close()
				log.Errorf("failed to start cpu profile: %v", err)
				return
			}
			u.profileFile = f
		}
	}
}

func appendWord(s, word string) string {
	if s == "" {
		return word
	}
	return s + " " + word
}

// sendInfo renders one iteration's SearchInfo as a USI "info" line
// (spec.md §6.1's event set).
func (u *USI) sendInfo(info engine.SearchInfo) {
	multiPV := info.MultiPV
	if multiPV == 0 {
		multiPV = 1
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("depth %d", info.Depth))
	parts = append(parts, fmt.Sprintf("multipv %d", multiPV))
	parts = append(parts, "score "+scoreToUSI(info.Score))
	parts = append(parts, fmt.Sprintf("nodes %d", info.Nodes))
	parts = append(parts, fmt.Sprintf("time %d", info.Time.Milliseconds()))
	if info.Time > 0 {
		nps := uint64(float64(info.Nodes) / info.Time.Seconds())
		parts = append(parts, fmt.Sprintf("nps %d", nps))
	}
	if info.HashFull > 0 {
		parts = append(parts, fmt.Sprintf("hashfull %d", info.HashFull))
	}
	if len(info.PV) > 0 {
		pv := make([]string, len(info.PV))
		for i, m := range info.PV {
			pv[i] = m.String()
		}
		parts = append(parts, "pv "+strings.Join(pv, " "))
	}
	fmt.Printf("info %s\n", strings.Join(parts, " "))
}

// scoreToUSI renders a centipawn/mate score in USI's "score cp <n>" or
// "score mate <n>" form.
func scoreToUSI(score int) string {
	if score > engine.MateScore-engine.MaxPly {
		return fmt.Sprintf("mate %d", (engine.MateScore-score+1)/2)
	}
	if score < -engine.MateScore+engine.MaxPly {
		return fmt.Sprintf("mate %d", -(engine.MateScore+score+1)/2)
	}
	return fmt.Sprintf("cp %d", score)
}
