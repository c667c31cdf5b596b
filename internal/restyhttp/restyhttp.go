// Package restyhttp is a transporter running on go-resty. It shares the
// request encoder and the status contract with the default transporter
// and leaves the HTTP/1.1 exchange to net/http.
package restyhttp

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/http/httpproxy"

	"github.com/frankli0324/go-transporter/internal/config"
	"github.com/frankli0324/go-transporter/internal/errors"
	"github.com/frankli0324/go-transporter/internal/logger"
	"github.com/frankli0324/go-transporter/internal/model"
)

// Name is the registry name of the Transporter.
const Name = "resty"

// Transporter adapts resty.Client to the model.Transporter interface.
type Transporter struct {
	client *resty.Client
	log    *zap.Logger
}

var _ model.Transporter = (*Transporter)(nil)

// New creates a Transporter with the timeouts, static hosts and proxy
// settings of cfg.
func New(cfg *config.Config, log *zap.Logger) *Transporter {
	log = logger.OrNop(log)
	c := resty.New()
	c.SetTransport(newHTTPTransport(cfg))
	c.SetTimeout(cfg.Timeout)
	c.SetCloseConnection(true)
	c.SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}))
	c.SetLogger(log.Sugar())
	return &Transporter{client: c, log: log}
}

func newHTTPTransport(cfg *config.Config) *http.Transport {
	d := &net.Dialer{Timeout: cfg.ConnectTimeout}
	t := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			if host, port, err := net.SplitHostPort(addr); err == nil {
				if ip, ok := cfg.Resolve[host]; ok {
					addr = net.JoinHostPort(ip, port)
				}
			}
			return d.DialContext(ctx, network, addr)
		},
		TLSHandshakeTimeout: cfg.ConnectTimeout,
		DisableKeepAlives:   true,
		// a non-nil empty map keeps the exchange on HTTP/1.1
		TLSNextProto: map[string]func(string, *tls.Conn) http.RoundTripper{},
	}
	if cfg.UseEnvProxy {
		proxyFunc := httpproxy.FromEnvironment().ProxyFunc()
		t.Proxy = func(r *http.Request) (*url.URL, error) { return proxyFunc(r.URL) }
	}
	return t
}

// Send encodes req like the default transporter does and performs it with
// resty. Redirects are returned as status errors, not followed.
func (t *Transporter) Send(ctx context.Context, req *model.Request) (*model.Response, error) {
	log := t.log.With(zap.String("call_id", uuid.NewString()))

	pr, err := req.Prepare()
	if err != nil {
		log.Debug("encode request", zap.String("url", req.URL), zap.Error(err))
		return nil, err
	}
	log = log.With(zap.String("method", pr.Method), zap.String("url", pr.URL))
	log.Debug("send request", zap.Int("body_bytes", len(pr.Body)))

	r := t.client.R().SetContext(ctx)
	for _, f := range pr.Header {
		if canonical[strings.ToLower(f.Name)] {
			r.SetHeader(f.Name, f.Value)
		} else {
			r.Header[f.Name] = []string{f.Value} // keep the caller's casing
		}
	}
	if pr.HeaderHost != "" {
		r.SetHeader("Host", pr.HeaderHost)
	}
	if !pr.Header.Has("Accept") {
		r.SetHeader("Accept", "*/*")
	}
	if pr.Body != nil {
		r.SetBody(pr.Body)
	}

	start := time.Now()
	resp, err := r.Execute(pr.Method, pr.URL)
	if err == nil {
		err = model.CheckStatus(pr.URL, resp.StatusCode())
	} else {
		err = errors.Transport(pr.URL, stage(err), err)
	}
	if err != nil {
		log.Debug("request failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return nil, err
	}

	raw := resp.RawResponse
	header := make(map[string]string, len(raw.Header))
	for k, vs := range raw.Header {
		header[k] = strings.Join(strings.Fields(vs[len(vs)-1]), " ")
	}
	log.Debug("response received",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("status", resp.StatusCode()),
		zap.Int("body_bytes", len(resp.Body())),
	)
	return &model.Response{
		Proto:  strings.ToUpper(raw.Proto),
		Status: model.NewStatus(resp.StatusCode()),
		Header: header,
		Body:   resp.Body(),
	}, nil
}

// resty and net/http look these fields up by their canonical key.
var canonical = map[string]bool{
	"accept":            true,
	"content-type":      true,
	"content-length":    true,
	"transfer-encoding": true,
	"user-agent":        true,
	"connection":        true,
}

// stage guesses where net/http failed, for errors that carry nothing
// more specific.
func stage(err error) errors.Code {
	var op *net.OpError
	switch {
	case errors.As(err, &op) && op.Op == "dial":
		return errors.CouldntConnect
	case errors.Is(err, io.ErrUnexpectedEOF):
		return errors.PartialFile
	case errors.Is(err, io.EOF):
		return errors.GotNothing
	}
	return errors.RecvError
}
