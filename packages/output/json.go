package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/hitdesk/packages/executor"
	"github.com/abdul-hamid-achik/hitdesk/packages/history"
	"github.com/abdul-hamid-achik/hitdesk/packages/store"
)

// JSONResult is the machine-readable form of one execution
type JSONResult struct {
	Request  *JSONRequest `json:"request,omitempty"`
	Kind     string       `json:"kind"`
	Status   int          `json:"status,omitempty"`
	Body     any          `json:"body,omitempty"`
	Message  string       `json:"message,omitempty"`
	Duration float64      `json:"duration"` // milliseconds
	Time     string       `json:"time"`
}

// JSONRequest represents request details
type JSONRequest struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

// JSONHistory wraps history entries with their summary
type JSONHistory struct {
	Entries []history.Entry `json:"entries"`
	Stats   *history.Stats  `json:"stats,omitempty"`
}

// JSONFormatter writes one indented JSON document per call
type JSONFormatter struct {
	writer io.Writer
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

// FormatResult writes result, with the request that produced it when spec is not nil.
func (f *JSONFormatter) FormatResult(spec *executor.RequestSpec, result executor.Result) error {
	out := JSONResult{
		Kind:     string(result.Kind),
		Status:   result.Status,
		Body:     result.Body,
		Message:  result.Message,
		Duration: float64(result.Duration.Microseconds()) / 1000,
		Time:     time.Now().Format(time.RFC3339),
	}

	if spec != nil {
		req := &JSONRequest{Method: spec.Method, URL: spec.URL}
		if len(spec.Headers) > 0 {
			req.Headers = make(map[string]string, len(spec.Headers))
			for _, h := range spec.Headers {
				req.Headers[h.Key] = h.Value
			}
		}
		out.Request = req
	}

	return f.encode(out)
}

func (f *JSONFormatter) FormatDocument(doc *store.Document) error {
	if doc == nil {
		doc = store.NewDocument()
	}
	return f.encode(doc)
}

func (f *JSONFormatter) FormatHistory(entries []history.Entry, stats *history.Stats) error {
	if entries == nil {
		entries = []history.Entry{}
	}
	return f.encode(JSONHistory{Entries: entries, Stats: stats})
}

func (f *JSONFormatter) FormatValue(v any) error {
	return f.encode(v)
}

func (f *JSONFormatter) encode(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
