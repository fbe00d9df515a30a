package store

// Header is a saved request header.
type Header struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Parameter types understood when a saved request is sent.
const (
	ParamQuery  = "query"
	ParamHeader = "header"
)

// Parameter is an extra key/value applied when the request is sent.
type Parameter struct {
	Type  string `json:"type"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SavedRequest is a named request definition in the library.
type SavedRequest struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Method     string      `json:"method"`
	URL        string      `json:"url"`
	Headers    []Header    `json:"headers"`
	Parameters []Parameter `json:"parameters"`
	Body       string      `json:"body"`
}

// Collection groups saved requests.
type Collection struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	APIs []SavedRequest `json:"apis"`
}

// Document is the whole persisted library.
type Document struct {
	Collections []Collection   `json:"collections"`
	APIs        []SavedRequest `json:"apis"`
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{
		Collections: []Collection{},
		APIs:        []SavedRequest{},
	}
}
