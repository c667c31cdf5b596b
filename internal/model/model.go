package model

import (
	"context"
	"strings"
)

// Params holds request parameters. GET requests carry them in the query
// string, every other method encodes them into the request body.
type Params map[string]interface{}

type Request struct {
	Method string
	URL    string
	Header Header
	Params Params
}

type Status struct {
	Code    int
	Message string
}

type Response struct {
	Proto  string
	Status Status
	Header map[string]string // last occurrence of a repeated name wins

	Body []byte
}

// Get looks up a response header ignoring the case of name. An exact match
// is preferred over a case-insensitive one.
func (r *Response) Get(name string) string {
	if v, ok := r.Header[name]; ok {
		return v
	}
	for k, v := range r.Header {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// Transporter performs a single request/response exchange. Implementations
// are selected by name through a registry.
type Transporter interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}
