package http

import (
	"strings"

	"github.com/tidwall/gjson"
)

type Response struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (r *Response) BodyString() string {
	return string(r.Body)
}

// BodyJSON parses the body as JSON. An empty body yields nil; a body that is
// not valid JSON yields ok == false.
func (r *Response) BodyJSON() (value any, ok bool) {
	if len(strings.TrimSpace(string(r.Body))) == 0 {
		return nil, true
	}
	if !gjson.ValidBytes(r.Body) {
		return nil, false
	}
	return gjson.ParseBytes(r.Body).Value(), true
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}
