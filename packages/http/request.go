package http

import (
	"net/url"
)

// Header is a single request header. Order is significant.
type Header struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type Request struct {
	Method  string
	URL     string
	Headers []Header
	Body    string
}

func NewRequest(method, requestURL string) *Request {
	return &Request{
		Method: method,
		URL:    requestURL,
	}
}

// AddHeader appends a header, keeping any earlier value for the same key.
func (r *Request) AddHeader(key, value string) *Request {
	r.Headers = append(r.Headers, Header{Key: key, Value: value})
	return r
}

func (r *Request) SetBody(body string) *Request {
	r.Body = body
	return r
}

// AppendQuery adds params to the query string of rawURL. The URL is returned
// unchanged when there are no params or it cannot be parsed.
func AppendQuery(rawURL string, params []Header) string {
	if len(params) == 0 {
		return rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	q := u.Query()
	for _, p := range params {
		q.Add(p.Key, p.Value)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
