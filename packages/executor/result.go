package executor

import (
	"fmt"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitdesk/packages/http"
)

// Method is an HTTP method the executor accepts.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodPatch  Method = "PATCH"
	MethodDelete Method = "DELETE"
)

// ParseMethod normalizes s and reports whether it is supported.
func ParseMethod(s string) (Method, bool) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete:
		return m, true
	}
	return m, false
}

// RequestSpec is the input of a single execution.
type RequestSpec struct {
	Method  string        `json:"method"`
	URL     string        `json:"url"`
	Headers []http.Header `json:"headers,omitempty"`
	Body    *string       `json:"body,omitempty"`
}

// Kind identifies which Result variant is populated.
type Kind string

const (
	KindSuccess        Kind = "success"
	KindHTTPError      Kind = "http_error"
	KindTransportError Kind = "transport_error"
	KindCancelled      Kind = "cancelled"
)

const (
	msgUnsupportedMethod = "unsupported method"
	msgParseFailed       = "Failed to parse response"
)

// Result is the outcome of one execution. Only the fields of its Kind are set.
type Result struct {
	Kind     Kind          `json:"kind"`
	Status   int           `json:"status,omitempty"`
	Body     any           `json:"body,omitempty"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration"`
}

func Success(status int, body any) Result {
	return Result{Kind: KindSuccess, Status: status, Body: body}
}

func HTTPError(status int) Result {
	return Result{Kind: KindHTTPError, Status: status}
}

func TransportError(message string) Result {
	return Result{Kind: KindTransportError, Message: message}
}

func Cancelled() Result {
	return Result{Kind: KindCancelled}
}

func (r Result) IsSuccess() bool {
	return r.Kind == KindSuccess
}

func (r Result) IsCancelled() bool {
	return r.Kind == KindCancelled
}

func (r Result) String() string {
	switch r.Kind {
	case KindSuccess:
		return fmt.Sprintf("success (%d)", r.Status)
	case KindHTTPError:
		return fmt.Sprintf("http error (%d)", r.Status)
	case KindTransportError:
		return "transport error: " + r.Message
	case KindCancelled:
		return "cancelled"
	}
	return string(r.Kind)
}
