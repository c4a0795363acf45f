package reactive

import (
	"context"

	trackerr "github.com/vango-dev/tracking/internal/errors"
)

// Pass runs fn as one logical render pass inside its own frame and returns
// the frame's tag along with fn's error.
//
// Engine violations raised as panics inside fn are recovered and returned as
// *Error, so a strict-mode failure aborts the pass instead of the process.
// Frames fn left open are closed before the pass commits; in strict mode
// that is reported as ErrUnbalancedFrame, in production as a warning.
// Panics that are not engine errors are re-raised once the stack is balanced.
func (tc *TrackingContext) Pass(ctx context.Context, name string, fn func(context.Context) error) (tag Tag, err error) {
	ctx, done := tc.observer.PassStarted(ctx, name)
	depth := len(tc.frames)
	tc.Begin()

	defer func() {
		r := recover()
		stray := tc.closeStray(depth + 1)
		tag = tc.Commit()

		if r != nil {
			te, ok := r.(*Error)
			if !ok {
				done(nil)
				panic(r)
			}
			err = te
		} else if stray > 0 && tc.strict && err == nil {
			err = newError(trackerr.CodeUnbalancedFrame).
				WithDepth(depth+1+stray).
				WithDetail("The pass returned with frames still open.")
		}

		if err != nil {
			tc.logger.Debug("tracking: pass failed", "pass", name, "error", err)
		}
		done(err)
	}()

	err = fn(ctx)
	return tag, err
}
