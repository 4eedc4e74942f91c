package obs

import (
	"context"
	"time"

	"route-planning-service/internal/platform/logging"
)

// Time logs the duration and outcome of an operation. Use as
//
//	defer obs.Time(ctx, "optimizer.Optimize")(&err)
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	return func(errp *error) {
		dur := time.Since(start)
		OperationDuration.WithLabelValues(name, outcome(errp)).Observe(dur.Seconds())

		if errp != nil && *errp != nil {
			logging.Ctx(ctx).Warn().Str("op", name).Int64("dur_ms", dur.Milliseconds()).Err(*errp).Msg("operation failed")
			return
		}
		logging.Ctx(ctx).Debug().Str("op", name).Int64("dur_ms", dur.Milliseconds()).Msg("operation done")
	}
}

func outcome(errp *error) string {
	if errp != nil && *errp != nil {
		return "error"
	}
	return "ok"
}
