package fetcher

import (
	"context"
	"time"
)

// WaitFor polls probe every interval until it reports true, the timeout
// elapses, probe fails, or ctx is done. A timeout is not an error: it
// returns false, nil. The probe always runs at least once.
func WaitFor(ctx context.Context, interval, timeout time.Duration, probe func(context.Context) (bool, error)) (bool, error) {
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		ok, err := probe(ctx)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		if !time.Now().Before(deadline) {
			return false, nil
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
		}
	}
}
