package ledger

import "fmt"

// FetchErrorCode classifies ledger RPC failures.
type FetchErrorCode string

const (
	ErrCodeUnreachable FetchErrorCode = "node_unreachable"
	ErrCodeTimeout     FetchErrorCode = "request_timeout"
	ErrCodeBadRequest  FetchErrorCode = "invalid_request"
	ErrCodeNodeError   FetchErrorCode = "node_error"
	ErrCodeBadPayload  FetchErrorCode = "malformed_response"
)

// FetchError is a network or RPC layer failure during discovery or batch
// fetch. It is surfaced to the caller verbatim and never retried internally.
type FetchError struct {
	Code    FetchErrorCode
	Op      string
	Err     error
	Message string
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ledger %s: %s: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("ledger %s: %s: %s", e.Op, e.Code, e.Message)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NewFetchError wraps err as a coded fetch failure for the given operation.
func NewFetchError(code FetchErrorCode, op string, err error) *FetchError {
	return &FetchError{Code: code, Op: op, Err: err}
}
