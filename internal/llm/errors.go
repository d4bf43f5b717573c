package llm

import "fmt"

// ErrBackendUnavailable indicates a backend could not serve the request:
// timeout, connection failure, non-2xx status, rate limit, or missing
// credential. The chain recovers by advancing to the next rung, so this
// error never reaches callers of the service.
type ErrBackendUnavailable struct {
	Backend string
	Reason  string
	Err     error
}

func (e *ErrBackendUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("backend %s unavailable (%s): %v", e.Backend, e.Reason, e.Err)
	}
	return fmt.Sprintf("backend %s unavailable: %s", e.Backend, e.Reason)
}

func (e *ErrBackendUnavailable) Unwrap() error { return e.Err }

// ErrUnparseableResponse indicates a backend answered with success status
// but content that cannot be mapped to a score or usable text. The chain
// treats it exactly like ErrBackendUnavailable.
type ErrUnparseableResponse struct {
	Backend string
	Reason  string
}

func (e *ErrUnparseableResponse) Error() string {
	return fmt.Sprintf("backend %s returned an unparseable response: %s", e.Backend, e.Reason)
}
