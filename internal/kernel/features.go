package kernel

import (
	"log/slog"
	"sync"

	"golang.org/x/sys/cpu"
)

// Features is the fixed set of hardware capability flags variants can
// require. It is probed once at first use and treated as immutable
// for the process lifetime.
type Features struct {
	AVX2  bool
	SSE42 bool
	NEON  bool
}

var (
	detectOnce sync.Once
	detected   Features
)

// Detect probes CPU features. Subsequent calls return the cached
// result.
func Detect() Features {
	detectOnce.Do(func() {
		detected = Features{
			AVX2:  cpu.X86.HasAVX2,
			SSE42: cpu.X86.HasSSE42,
			NEON:  cpu.ARM64.HasASIMD,
		}
		slog.Debug("CPU features probed",
			"avx2", detected.AVX2,
			"sse42", detected.SSE42,
			"neon", detected.NEON)
	})
	return detected
}
