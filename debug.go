package junctionbox

import (
	"log/slog"
	"sync/atomic"
)

var (
	globalDebug atomic.Bool
	logger      atomic.Pointer[slog.Logger]
)

// SetDebugMode enables hierarchy shape warnings for every Junction and
// Dispatcher in the process.
func SetDebugMode(enabled bool) {
	globalDebug.Store(enabled)
}

func debugEnabled() bool {
	return globalDebug.Load()
}

// SetLogger replaces the package logger. A nil logger restores slog.Default.
func SetLogger(l *slog.Logger) {
	logger.Store(l)
}

func pkgLog() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return slog.Default()
}

// debugCheckTreeDepth warns if the hierarchy depth exceeds the threshold.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(j *Junction) {
	depth := 0
	for p := j; p != nil; p = p.Parent() {
		depth++
	}
	if depth > debugMaxTreeDepth {
		pkgLog().Warn("junction tree too deep",
			"junction", j.Label(), "depth", depth, "threshold", debugMaxTreeDepth)
	}
}

// debugCheckChildCount warns if a Junction has more than 1000 children.
const debugMaxChildCount = 1000

func debugCheckChildCount(j *Junction) {
	if n := j.children.len(); n > debugMaxChildCount {
		pkgLog().Warn("junction has too many children",
			"junction", j.Label(), "children", n, "threshold", debugMaxChildCount)
	}
}
