// Package automaxprocs sets GOMAXPROCS from the container CPU quota and logs the result.
package automaxprocs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/collectible-ledger/pkg/logger"
	"github.com/gaze-network/collectible-ledger/pkg/logger/slogx"
	"go.uber.org/automaxprocs/maxprocs"
)

var (
	mu     sync.Mutex
	revert func()

	initial = Current()
)

// Init applies the CPU quota. Calling it again is a no-op until Undo.
func Init() error {
	mu.Lock()
	defer mu.Unlock()
	if revert != nil {
		return nil
	}

	log := logger.With(
		slogx.String("package", "automaxprocs"),
		slogx.Int("prev_maxprocs", initial),
	)
	printf := func(format string, v ...any) {
		attrs := make([]slog.Attr, 0, 1)
		// maxprocs passes the new value as the only argument, except on undo.
		if val, ok := utils.Optional(v); ok {
			if _, exists := os.LookupEnv("GOMAXPROCS"); exists {
				val = Current()
			}
			if n, ok := val.(int); ok {
				attrs = append(attrs, slogx.Int("set_maxprocs", n))
			}
		}
		log.LogAttrs(context.Background(), slog.LevelInfo, fmt.Sprintf(format, v...), attrs...)
	}

	undo, err := maxprocs.Set(maxprocs.Logger(printf), maxprocs.Min(1))
	if err != nil {
		return errors.Wrap(err, "failed to set GOMAXPROCS")
	}
	revert = undo
	return nil
}

// Undo restores the GOMAXPROCS value observed before Init and returns it.
func Undo() int {
	mu.Lock()
	defer mu.Unlock()
	if revert != nil {
		revert()
		revert = nil
		return Current()
	}
	runtime.GOMAXPROCS(initial)
	return initial
}

func Current() int {
	return runtime.GOMAXPROCS(0)
}
