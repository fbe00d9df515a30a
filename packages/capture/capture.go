package capture

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/abdul-hamid-achik/hitdesk/packages/executor"
)

type Source string

const (
	SourceBody   Source = "body"
	SourceStatus Source = "status"
	SourceKind   Source = "kind"
)

// Capture is a parsed selection expression.
type Capture struct {
	Source Source
	Path   string
}

// Parse splits expr into a source and an optional body path.
func Parse(expr string) (*Capture, error) {
	expr = strings.TrimSpace(expr)
	source, path, _ := strings.Cut(expr, ".")

	switch Source(source) {
	case SourceBody:
		return &Capture{Source: SourceBody, Path: path}, nil
	case SourceStatus, SourceKind:
		if path != "" {
			return nil, fmt.Errorf("%s does not take a path", source)
		}
		return &Capture{Source: Source(source)}, nil
	}
	return nil, fmt.Errorf("unknown capture source %q (expected body, status or kind)", source)
}

type Extractor struct {
	result   executor.Result
	bodyJSON gjson.Result
}

func NewExtractor(result executor.Result) *Extractor {
	e := &Extractor{
		result: result,
	}
	if result.Body != nil {
		if raw, err := json.Marshal(result.Body); err == nil {
			e.bodyJSON = gjson.ParseBytes(raw)
		}
	}
	return e
}

func (e *Extractor) Extract(capture *Capture) (any, bool) {
	switch capture.Source {
	case SourceBody:
		return e.extractFromBody(capture.Path)
	case SourceStatus:
		if e.result.Status == 0 {
			return nil, false
		}
		return e.result.Status, true
	case SourceKind:
		return string(e.result.Kind), true
	default:
		return nil, false
	}
}

func (e *Extractor) extractFromBody(path string) (any, bool) {
	if !e.bodyJSON.Exists() {
		return nil, false
	}

	if path == "" {
		return e.bodyJSON.Value(), true
	}

	result := e.bodyJSON.Get(path)
	if !result.Exists() {
		return nil, false
	}
	return result.Value(), true
}

// Select parses expr and extracts it from result in one step.
func Select(result executor.Result, expr string) (any, error) {
	c, err := Parse(expr)
	if err != nil {
		return nil, err
	}
	value, ok := NewExtractor(result).Extract(c)
	if !ok {
		return nil, fmt.Errorf("nothing matched %q", expr)
	}
	return value, nil
}
