package app

import (
	"github.com/abdul-hamid-achik/hitdesk/packages/core/env"
	"github.com/abdul-hamid-achik/hitdesk/packages/executor"
	"github.com/abdul-hamid-achik/hitdesk/packages/http"
	"github.com/abdul-hamid-achik/hitdesk/packages/store"
)

// SpecFromSaved turns a saved request into an executable spec. Query
// parameters are appended to the URL, header parameters after the saved
// headers. Parameters of any other type are ignored. An empty body means no
// body.
func SpecFromSaved(req store.SavedRequest) executor.RequestSpec {
	headers := make([]http.Header, 0, len(req.Headers)+len(req.Parameters))
	for _, h := range req.Headers {
		headers = append(headers, http.Header{Key: h.Key, Value: h.Value})
	}

	var query []http.Header
	for _, p := range req.Parameters {
		switch p.Type {
		case store.ParamQuery:
			query = append(query, http.Header{Key: p.Key, Value: p.Value})
		case store.ParamHeader:
			headers = append(headers, http.Header{Key: p.Key, Value: p.Value})
		}
	}

	spec := executor.RequestSpec{
		Method:  req.Method,
		URL:     http.AppendQuery(req.URL, query),
		Headers: headers,
	}
	if req.Body != "" {
		body := req.Body
		spec.Body = &body
	}
	return spec
}

// ExpandSpec substitutes {{$NAME}} references in the URL, header values and
// body of spec. It returns the names that lookup could not resolve; those
// references are sent as written.
func ExpandSpec(spec executor.RequestSpec, lookup env.LookupFunc) (executor.RequestSpec, []string) {
	e := env.NewExpander(lookup)

	out := spec
	out.URL = e.Expand(spec.URL)
	if spec.Headers != nil {
		out.Headers = make([]http.Header, len(spec.Headers))
		for i, h := range spec.Headers {
			out.Headers[i] = http.Header{Key: h.Key, Value: e.Expand(h.Value)}
		}
	}
	if spec.Body != nil {
		body := e.Expand(*spec.Body)
		out.Body = &body
	}
	return out, e.Missing()
}
