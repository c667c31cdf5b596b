package model

import "strings"

type Field struct {
	Name, Value string
}

// Header is an ordered set of request header fields. Names are matched
// case-insensitively and are unique; the casing and position of the first
// declaration are kept when a field is overwritten.
type Header []Field

// NewHeader builds a Header from alternating name and value arguments.
// A trailing name without value is ignored.
func NewHeader(kv ...string) Header {
	h := make(Header, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		h.Set(kv[i], kv[i+1])
	}
	return h
}

func (h Header) index(name string) int {
	for i := range h {
		if strings.EqualFold(h[i].Name, name) {
			return i
		}
	}
	return -1
}

func (h Header) Get(name string) string {
	if i := h.index(name); i != -1 {
		return h[i].Value
	}
	return ""
}

func (h Header) Has(name string) bool {
	return h.index(name) != -1
}

func (h *Header) Set(name, value string) {
	if i := h.index(name); i != -1 {
		(*h)[i].Value = value
		return
	}
	*h = append(*h, Field{name, value})
}

func (h *Header) Del(name string) {
	if i := h.index(name); i != -1 {
		*h = append((*h)[:i], (*h)[i+1:]...)
	}
}

func (h Header) Clone() Header {
	if h == nil {
		return nil
	}
	return append(make(Header, 0, len(h)), h...)
}

// Lines renders every field as a "Name: Value" line, in declaration order.
func (h Header) Lines() []string {
	lines := make([]string, 0, len(h))
	for _, f := range h {
		lines = append(lines, f.Name+": "+f.Value)
	}
	return lines
}
