package transition

import (
	"context"
	"errors"

	"github.com/alitto/pond/v2"
)

// InvokeAll invokes t on every machine concurrently through a bounded
// worker pool and returns the resulting states in input order. Each
// invocation follows the usual per-machine protocol; no ordering holds
// between machines. Failures are joined into the returned error, and the
// corresponding result is the machine's state before the call. Once ctx is
// done, machines not yet reached are skipped and report their current state.
func (e *Executor[S]) InvokeAll(ctx context.Context, machines []*Machine[S], t *Spec[S], args ...any) ([]S, error) {
	results := make([]S, len(machines))
	if len(machines) == 0 {
		return results, nil
	}

	errs := make([]error, len(machines))

	for i, m := range machines {
		if m != nil {
			results[i] = m.State()
		}
	}

	pool := pond.NewPool(min(e.fanoutWorkers, len(machines)), pond.WithContext(ctx))
	defer pool.StopAndWait()

	group := pool.NewGroup()

	for i, m := range machines {
		group.Submit(func() {
			if err := ctx.Err(); err != nil {
				errs[i] = err

				return
			}

			results[i], errs[i] = e.Invoke(ctx, m, t, args...)
		})
	}

	// Wait only reports task panics and pool cancellation here.
	waitErr := group.Wait()

	return results, errors.Join(append(errs, waitErr)...)
}
