package translator

import (
	"context"
	"time"

	"github.com/MimeLyc/bulk-sub-translator/internal/llm"
	"github.com/MimeLyc/bulk-sub-translator/pkg/log"
)

// retryPolicy bounds one logical remote call: how many attempts it may
// take and the timeout of the first one. Attempt k runs under a
// deadline of baseTimeout * 2^k.
type retryPolicy struct {
	maxAttempts int
	baseTimeout time.Duration
}

// runWithRetry drives a unit of work that performs exactly one remote
// call per attempt.
//
// Classification per attempt:
//   - success: usage is recorded against the session and nil returned;
//   - timeout / transport fault: the session is rotated and the work
//     retried; the last attempt's error is returned on exhaustion;
//   - malformed response: same rotation and retry, the error is
//     returned on exhaustion so the caller can degrade instead of fail;
//   - anything else: returned immediately, no further attempts.
//
// A session is never reused across a failed attempt: a hung or
// corrupted remote context must not poison the next try.
func (t *aiTranslator) runWithRetry(
	ctx context.Context,
	policy retryPolicy,
	call func(ctx context.Context, session *llm.Session) error,
) error {
	var lastErr error

	for attempt := 0; attempt < policy.maxAttempts; attempt++ {
		session, err := t.sessions.Acquire(ctx)
		if err != nil {
			return err
		}

		attemptCtx, cancel := context.WithTimeout(ctx, policy.baseTimeout<<attempt)
		err = call(attemptCtx, session)
		cancel()

		switch classify(err) {
		case outcomeSuccess:
			t.sessions.RecordUsage(session)
			return nil

		case outcomeTimeout, outcomeTransport:
			log.Warn("Remote call attempt %d/%d failed (%v), retrying with fresh session",
				attempt+1, policy.maxAttempts, err)
			t.sessions.Invalidate(session)
			lastErr = err

		case outcomeMalformed:
			log.Warn("Unparseable response on attempt %d/%d, retrying with fresh session",
				attempt+1, policy.maxAttempts)
			t.sessions.Invalidate(session)
			lastErr = err

		case outcomeUnexpected:
			log.Error("Unexpected failure during remote call, aborting retries: %v", err)
			return err
		}
	}

	return lastErr
}
