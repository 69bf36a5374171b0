package directions

import "errors"

var (
	ErrTransport        = errors.New("transport error")
	ErrParse            = errors.New("parse error")
	ErrMalformedPayload = errors.New("malformed payload")
)

// Kind tags the outcome carried by a Result.
type Kind int

const (
	KindSuccess Kind = iota
	KindTransportError
	KindParseError
	KindMalformedPayload
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindTransportError:
		return "transport_error"
	case KindParseError:
		return "parse_error"
	case KindMalformedPayload:
		return "malformed_payload"
	default:
		return "unknown"
	}
}

// Result is what a single directions request produced. Points is only set
// for KindSuccess and Err only for the failure kinds.
type Result struct {
	RequestID string
	Kind      Kind
	Points    string
	Err       error
}

func (r Result) OK() bool {
	return r.Kind == KindSuccess
}

// ResultHandler receives the outcome of RequestRoute on the dispatcher.
type ResultHandler func(Result)

// Dispatcher moves work onto the execution context that owns map state.
type Dispatcher interface {
	Post(fn func())
}

// DispatcherFunc runs fn inline. Useful when the caller already serialises access.
type DispatcherFunc func(fn func())

func (d DispatcherFunc) Post(fn func()) {
	d(fn)
}
