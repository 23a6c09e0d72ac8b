//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

package mm

import (
	"fmt"
	"github.com/e-gun/HipparchiaMorphTagger/internal/vv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"
)

//
// TERMINAL OUTPUT/MESSAGES
//

const (
	RESET   = "\033[0m"
	BLUE1   = "\033[38;5;38m"  // DeepSkyBlue2
	BLUE2   = "\033[38;5;68m"  // SteelBlue3
	CYAN2   = "\033[38;5;117m" // SkyBlue1
	GREEN   = "\033[38;5;70m"  // Chartreuse3
	RED1    = "\033[38;5;160m" // Red3
	YELLOW1 = "\033[38;5;178m" // Gold3
	YELLOW2 = "\033[38;5;143m" // DarkKhaki
	GREY3   = "\033[38;5;242m" // Grey42
	WHITE   = "\033[38;5;255m" // Grey93
	BLINK   = "\033[30;0;5m"
	PANIC   = "[%s%s v.%s%s] %sUNRECOVERABLE ERROR%s\n"
	PANIC2  = "[%s%s v.%s%s] (%s%s%s) %sUNRECOVERABLE ERROR%s\n"
)

type MessageMaker struct {
	BW    bool
	LLvl  int
	LNm   string
	Lnc   time.Time
	SNm   string
	Ver   string
	Win   bool
	Out   io.Writer
	zl    *zap.Logger
	paths map[string]int
	mtx   sync.RWMutex
}

// New - a MessageMaker with the project's names and the given log level
func New(loglevel int, bw bool) *MessageMaker {
	return &MessageMaker{
		BW:    bw,
		LLvl:  loglevel,
		LNm:   vv.MYNAME,
		Lnc:   time.Now(),
		SNm:   vv.SHORTNAME,
		Ver:   vv.VERSION,
		Win:   runtime.GOOS == "windows",
		Out:   os.Stdout,
		paths: make(map[string]int),
	}
}

// SetLevel - adjust after the config file and the flags have been read
func (m *MessageMaker) SetLevel(loglevel int, bw bool) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.LLvl = loglevel
	m.BW = bw
}

// AttachFile - also send every emitted message to a zap JSON log at fn
func (m *MessageMaker) AttachFile(fn string) error {
	if fn == "" {
		return nil
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{fn}
	cfg.ErrorOutputPaths = []string{fn}
	cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	cfg.Sampling = nil
	zl, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("log file '%s': %w", fn, err)
	}
	m.mtx.Lock()
	m.zl = zl.With(zap.String("app", m.SNm), zap.String("version", m.Ver))
	m.mtx.Unlock()
	return nil
}

// Sync - flush the zap sink, if any
func (m *MessageMaker) Sync() {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	if m.zl != nil {
		_ = m.zl.Sync()
	}
}

// Emit - send a message to the terminal, perhaps adding color and style to it
func (m *MessageMaker) Emit(message string, threshold int) {
	// sample output: "[HMT] predicted 1144 sentences in 12.203s"
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	if m.zl != nil {
		m.zl.Log(zaplevel(threshold), m.plain(message), zap.Int("threshold", threshold))
	}

	if m.LLvl < threshold {
		return
	}

	if !m.Win && !m.BW {
		var color string

		switch threshold {
		case vv.MSGMAND:
			color = GREEN
		case vv.MSGCRIT:
			color = RED1
		case vv.MSGWARN:
			color = YELLOW2
		case vv.MSGNOTE:
			color = YELLOW1
		case vv.MSGFYI:
			color = CYAN2
		case vv.MSGPEEK:
			color = BLUE2
		case vv.MSGTMI:
			color = GREY3
		default:
			color = WHITE
		}
		fmt.Fprintf(m.Out, "[%s%s%s] %s%s%s\n", YELLOW1, m.SNm, RESET, color, message, RESET)
	} else {
		// terminal color codes not w's friend
		fmt.Fprintf(m.Out, "[%s] %s\n", m.SNm, message)
	}
}

func (m *MessageMaker) MAND(message string) { m.Emit(message, vv.MSGMAND) }
func (m *MessageMaker) CRIT(message string) { m.Emit(message, vv.MSGCRIT) }
func (m *MessageMaker) WARN(message string) { m.Emit(message, vv.MSGWARN) }
func (m *MessageMaker) NOTE(message string) { m.Emit(message, vv.MSGNOTE) }
func (m *MessageMaker) FYI(message string)  { m.Emit(message, vv.MSGFYI) }
func (m *MessageMaker) PEEK(message string) { m.Emit(message, vv.MSGPEEK) }
func (m *MessageMaker) TMI(message string)  { m.Emit(message, vv.MSGTMI) }

func zaplevel(threshold int) zapcore.Level {
	switch {
	case threshold <= vv.MSGCRIT:
		return zapcore.ErrorLevel
	case threshold == vv.MSGWARN:
		return zapcore.WarnLevel
	case threshold == vv.MSGNOTE:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// plain - strip the pseudo-tags that Color and Styled would swap
func (m *MessageMaker) plain(tagged string) string {
	swap := strings.NewReplacer("C1", "", "C2", "", "C3", "", "C4", "", "C5", "", "C6", "", "C7", "", "C0", "",
		"S1", "", "S2", "", "S3", "", "S4", "", "S5", "", "S0", "")
	return swap.Replace(tagged)
}

// Color - color text with ANSI codes by swapping out pseudo-tags
func (m *MessageMaker) Color(tagged string) string {
	// "[git: C4%sC0]" ==> green text for the %s
	swap := strings.NewReplacer("C1", "", "C2", "", "C3", "", "C4", "", "C5", "", "C6", "", "C7", "", "C0", "")

	if !m.Win && !m.BW {
		swap = strings.NewReplacer("C1", YELLOW1, "C2", CYAN2, "C3", BLUE1, "C4", GREEN, "C5", RED1,
			"C6", GREY3, "C7", BLINK, "C0", RESET)
	}
	return swap.Replace(tagged)
}

// Styled - style text with ANSI codes by swapping out pseudo-tags
func (m *MessageMaker) Styled(tagged string) string {
	const (
		BOLD    = "\033[1m"
		ITAL    = "\033[3m"
		UNDER   = "\033[4m"
		REVERSE = "\033[7m"
		STRIKE  = "\033[9m"
	)
	swap := strings.NewReplacer("S1", "", "S2", "", "S3", "", "S4", "", "S5", "", "S0", "")

	if !m.Win && !m.BW {
		swap = strings.NewReplacer("S1", BOLD, "S2", ITAL, "S3", UNDER, "S4", STRIKE, "S5", REVERSE,
			"S0", RESET)
	}
	return swap.Replace(tagged)
}

func (m *MessageMaker) ColStyle(tagged string) string {
	return m.Styled(m.Color(tagged))
}

// EF - report error and function
func (m *MessageMaker) EF(err error, fn string) {
	if err != nil {
		fmt.Printf(PANIC2, YELLOW2, m.LNm, m.Ver, RESET, CYAN2, fn, RESET, RED1, RESET)
		fmt.Println(err)
		m.ExitOrHang(1)
	}
}

// EC - report error and exit
func (m *MessageMaker) EC(err error) {
	if err != nil {
		fmt.Printf(PANIC, YELLOW2, m.LNm, m.Ver, RESET, RED1, RESET)
		fmt.Println(err)
		m.ExitOrHang(1)
	}
}

// ExitOrHang - Windows should hang to keep the error visible before the window closes and hides it
func (m *MessageMaker) ExitOrHang(e int) {
	const (
		HANG = `Execution suspended. %s is now frozen. Note any errors above. Execution will halt after %d seconds.`
		SUSP = 60
	)
	m.Sync()
	if m.Win {
		m.Emit(fmt.Sprintf(HANG, m.LNm, SUSP), vv.MSGMAND)
		time.Sleep(SUSP * time.Second)
	}
	os.Exit(e)
}

// Timer - report how much time elapsed between A and B
func (m *MessageMaker) Timer(letter string, o string, start time.Time, previous time.Time) {
	// sample output: "[D2: 33.764s][Δ: 8.024s] predicted 48 sentences"
	d := fmt.Sprintf("[Δ: %.3fs] ", time.Since(previous).Seconds())
	o = fmt.Sprintf("[%s: %.3fs]", letter, time.Since(start).Seconds()) + d + o
	m.Emit(o, vv.TIMETRACKERMSGTHRESH)
}

// LogPaths - increment the counter for a route and report the heap
func (m *MessageMaker) LogPaths(fn string) {
	// sample output: "[HMT] RtAnalyze() current heap: 340M"
	const (
		HEAP = "%s current heap: %s"
	)
	m.mtx.Lock()
	m.paths[fn]++
	m.mtx.Unlock()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	m.Emit(fmt.Sprintf(HEAP, fn, fmt.Sprintf("%dM", mem.HeapAlloc/1024/1024)), vv.MSGPEEK)
}

// PathStats - a snapshot of LogPaths counts with the keys in order
func (m *MessageMaker) PathStats() ([]string, map[string]int) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	snap := maps.Clone(m.paths)
	kk := maps.Keys(snap)
	slices.Sort(kk)
	return kk, snap
}
