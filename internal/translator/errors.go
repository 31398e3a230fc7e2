package translator

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/MimeLyc/bulk-sub-translator/internal/llm"
)

// MalformedResponseError marks a reply from which no structured
// translation payload could be recovered.
type MalformedResponseError struct {
	Raw string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed translation response (%d bytes)", len(e.Raw))
}

// outcome is the classification of one remote attempt. Retry decisions
// are made on outcomes, never on error string matching.
type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeTimeout
	outcomeMalformed
	outcomeTransport
	outcomeUnexpected
)

// classify sorts an attempt error into the retry taxonomy:
// timeouts and transport faults are retried with a fresh session,
// malformed responses are retried but degrade instead of failing,
// anything else aborts the unit of work immediately.
func classify(err error) outcome {
	if err == nil {
		return outcomeSuccess
	}

	var malformed *MalformedResponseError
	if errors.As(err, &malformed) {
		return outcomeMalformed
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return outcomeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return outcomeTimeout
	}

	var transport *llm.TransportError
	if errors.As(err, &transport) {
		return outcomeTransport
	}

	return outcomeUnexpected
}
