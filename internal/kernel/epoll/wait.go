package epoll

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/GriffinCanCode/AgentOS/ipcd/internal/kernel/sched"
)

// maxTimeout is the largest timeout a caller can ask for, the range of a C int.
const maxTimeout = math.MaxInt32

// Wait blocks until at least one registered condition is ready and returns
// the number of events written to out.
//
// A negative timeout waits indefinitely, zero polls once, and a positive
// timeout is in milliseconds, capped at math.MaxInt32. An expired timeout
// returns (0, nil). Registrations whose descriptor no longer resolves are
// dropped after the pass that finds them. If one of them did not ask for
// EPOLLERR, Wait returns (0, nil). Cancelling ctx returns ctx.Err().
func (ep *Instance) Wait(ctx context.Context, out []Event, timeout int) (int, error) {
	if len(out) == 0 {
		return 0, unix.EINVAL
	}
	if ep.closed.Load() {
		return 0, unix.EBADF
	}

	var deadline time.Time
	if timeout >= 0 {
		deadline = time.Now().Add(time.Duration(min(timeout, maxTimeout)) * time.Millisecond)
	}

	for {
		n, stale, surfaced := ep.pass(out)
		if len(stale) > 0 {
			ep.forget(stale)
			if surfaced {
				ep.logger.Error("epoll wait found a non-existent fd", zap.Ints("pruned", stale))
				return 0, nil
			}
			ep.logger.Debug("epoll wait reported closed fds", zap.Ints("pruned", stale))
		}
		if n > 0 {
			return n, nil
		}

		if timeout >= 0 && !time.Now().Before(deadline) {
			return 0, nil
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		sched.Yield()
	}
}
