package buildop

import (
	"context"
	"time"

	"github.com/specialistvlad/transformgrid/internal/ctxlog"
)

// progressLogger logs each operation's progress name before delegating.
type progressLogger struct {
	next Executor
}

// WithProgressLogging wraps next so that every operation emits its progress
// display name as an Info line, and its outcome at Debug level.
func WithProgressLogging(next Executor) Executor {
	return &progressLogger{next: next}
}

func (p *progressLogger) Run(ctx context.Context, desc Descriptor, op Func) error {
	logger := ctxlog.FromContext(ctx).With("category", string(desc.Category))
	if desc.ProgressDisplayName != "" {
		logger.Info(desc.ProgressDisplayName)
	}

	start := time.Now()
	err := p.next.Run(ctx, desc, op)
	if err != nil {
		logger.Debug("Operation failed.", "operation", desc.DisplayName, "duration", time.Since(start), "error", err)
	} else {
		logger.Debug("Operation finished.", "operation", desc.DisplayName, "duration", time.Since(start))
	}
	return err
}
