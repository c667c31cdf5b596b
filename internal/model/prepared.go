package model

import (
	"bytes"
	"encoding/json"
	"net"
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/http/httpguts"
	"golang.org/x/net/idna"

	"github.com/frankli0324/go-transporter/internal/errors"
)

const formContentType = "application/x-www-form-urlencoded"

// PreparedRequest is a Request resolved into what goes on the wire.
type PreparedRequest struct {
	*Request

	Method     string
	URL        string // final URL, GET params merged in
	U          *url.URL
	Header     Header // declared header plus fields added by Prepare, Host excluded
	HeaderHost string
	Body       []byte // nil when no body is sent
}

// Prepare encodes r. Parameters go to the query string for GET and to the
// body for every other method, JSON-encoded when the declared content-type
// starts with application/json and form-encoded otherwise.
func (r *Request) Prepare() (*PreparedRequest, error) {
	method := r.Method
	if method == "" {
		method = "GET"
	}
	pr := &PreparedRequest{
		Request: r,
		Method:  method,
		URL:     r.URL,
		Header:  r.Header.Clone(),
	}
	if !validMethod(method) {
		return nil, errors.EncodingError{URL: r.URL, Reason: "the method " + quote(method) + " is not a valid token"}
	}

	if len(r.Params) != 0 {
		if method == "GET" {
			pr.URL = MergeQuery(r.URL, r.Params)
		} else if err := pr.updateBody(); err != nil {
			return nil, err
		}
	}

	if err := pr.updateURL(); err != nil {
		return nil, err
	}

	if !pr.Header.Has("Referer") {
		pr.Header.Set("Referer", pr.URL)
	}
	for _, f := range pr.Header {
		if !httpguts.ValidHeaderFieldName(f.Name) || !httpguts.ValidHeaderFieldValue(f.Value) {
			return nil, errors.EncodingError{URL: pr.URL, Reason: "the header " + quote(f.Name) + " is not a valid HTTP header field"}
		}
	}
	return pr, nil
}

// should only be called once at [Prepare]
func (r *PreparedRequest) updateBody() error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(r.Params); err != nil {
			return errors.EncodingError{URL: r.URL, Reason: "the data could not be JSON-encoded", Err: err}
		}
		r.Body = bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})
		return nil
	}
	r.Body = []byte(EncodeForm(r.Params))
	if !r.Header.Has("Content-Type") {
		r.Header.Set("Content-Type", formContentType)
	}
	return nil
}

func (r *PreparedRequest) updateURL() error {
	u, err := url.Parse(r.URL)
	if err != nil {
		return errors.TransportError{URL: r.URL, Code: errors.URLMalformat, Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.TransportError{URL: r.URL, Code: errors.UnsupportedProtocol, Err: &url.Error{Op: "parse", URL: r.URL, Err: errUnsupportedScheme(u.Scheme)}}
	}
	if u.Hostname() == "" {
		return errors.TransportError{URL: r.URL, Code: errors.URLMalformat, Err: url.InvalidHostError("empty host")}
	}
	r.U = u

	// user defined Host header has higher priority
	if i := r.Header.index("Host"); i != -1 {
		r.HeaderHost = r.Header[i].Value
		r.Header.Del("Host")
		return nil
	}
	host, err := ASCIIHost(u.Hostname())
	if err != nil {
		return errors.TransportError{URL: r.URL, Code: errors.URLMalformat, Err: err}
	}
	if port := u.Port(); port != "" {
		host = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	r.HeaderHost = host
	return nil
}

// ASCIIHost converts internationalized host names to their punycode form,
// IP literals and plain ASCII names are returned as they are.
func ASCIIHost(host string) (string, error) {
	if net.ParseIP(host) != nil {
		return host, nil
	}
	for i := 0; i < len(host); i++ {
		if host[i] >= utf8.RuneSelf {
			return idna.Lookup.ToASCII(host)
		}
	}
	return host, nil
}

type errUnsupportedScheme string

func (e errUnsupportedScheme) Error() string {
	return "unsupported protocol scheme " + quote(string(e))
}

func validMethod(m string) bool {
	for _, c := range m {
		if !httpguts.IsTokenRune(c) {
			return false
		}
	}
	return m != ""
}

func quote(s string) string {
	return "\"" + s + "\""
}
