package dialer

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/frankli0324/go-transporter/internal/errors"
	"github.com/frankli0324/go-transporter/internal/model"
)

// DefaultConnectTimeout bounds TCP connect, proxy negotiation and TLS
// handshake together.
const DefaultConnectTimeout = 5 * time.Second

// Dialers handle pretty much everything related to the actual connection,
// including proxies for each request, resolvers, etc. A Dialer holds no
// connection state: every Dial opens a fresh connection that the caller
// owns and closes.
type Dialer interface {
	// Dial returns a connection the request can be written to, ready for
	// the HTTP/1.1 exchange. Failures are errors.TransportError values.
	Dial(ctx context.Context, r *model.PreparedRequest) (*Conn, error)
	Unwrap() Dialer
}

// Conn is a connection returned by a Dialer.
type Conn struct {
	net.Conn

	// Forward is set when Conn leads to a forwarding HTTP proxy rather
	// than the origin. Requests then use absolute-form targets and carry
	// ProxyHeader.
	Forward     bool
	ProxyHeader model.Header
}

type CoreDialer struct {
	ConnectTimeout time.Duration
	ResolveConfig  *ResolveConfig

	TLSConfig *tls.Config // nil means crypto/tls defaults

	// GetProxy returns the proxy URL to use for r, or "" to connect directly.
	GetProxy    func(ctx context.Context, r *model.PreparedRequest) (string, error)
	ProxyConfig *ProxyConfig
}

func (d *CoreDialer) Clone() *CoreDialer {
	return &CoreDialer{
		ConnectTimeout: d.ConnectTimeout,
		ResolveConfig:  d.ResolveConfig.Clone(),
		TLSConfig:      d.TLSConfig.Clone(),
		GetProxy:       d.GetProxy,
		ProxyConfig:    d.ProxyConfig.Clone(),
	}
}

func (d *CoreDialer) Unwrap() Dialer {
	return nil
}

var schemes = map[string]string{
	"http": "80", "https": "443",
}

func (d *CoreDialer) connectTimeout() time.Duration {
	if d.ConnectTimeout > 0 {
		return d.ConnectTimeout
	}
	return DefaultConnectTimeout
}

func (d *CoreDialer) Dial(ctx context.Context, r *model.PreparedRequest) (*Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, d.connectTimeout())
	defer cancel()

	host, err := model.ASCIIHost(r.U.Hostname())
	if err != nil {
		return nil, errors.TransportError{URL: r.URL, Code: errors.URLMalformat, Err: err}
	}
	port := r.U.Port()
	if port == "" {
		port = schemes[r.U.Scheme]
	}

	conn, err := d.tryDialProxy(ctx, r, host, port)
	if err != nil {
		return nil, errors.Transport(r.URL, errors.CouldntConnect, err)
	}
	if conn == nil {
		c, err := d.dialDirect(ctx, host, port)
		if err != nil {
			return nil, errors.Transport(r.URL, errors.CouldntConnect, err)
		}
		conn = &Conn{Conn: c}
	}

	if r.U.Scheme == "https" && !conn.Forward {
		c, err := d.handshake(ctx, conn.Conn, host, d.TLSConfig)
		if err != nil {
			conn.Close()
			return nil, errors.Transport(r.URL, errors.SSLConnectError, err)
		}
		conn.Conn = c
	}
	return conn, nil
}

func (d *CoreDialer) dialDirect(ctx context.Context, host, port string) (net.Conn, error) {
	return d.dialTCP(ctx, d.ResolveConfig, host, port)
}

var zeroDialer net.Dialer
var customDnsDialer = net.Dialer{
	Resolver: &customServerResolver,
}

func (d *CoreDialer) dialTCP(ctx context.Context, cfg *ResolveConfig, host, port string) (net.Conn, error) {
	network, dialer, dst := "tcp", &zeroDialer, net.JoinHostPort(host, port)
	if cfg != nil {
		switch cfg.Network {
		case "ip4":
			network = "tcp4"
		case "ip6":
			network = "tcp6"
		}
		if static, ok := cfg.StaticHosts[host]; ok {
			dst = net.JoinHostPort(static, port)
		}
		if dns := cfg.CustomDNSServer; dns != "" {
			ctx = dnsServerCtx{ctx, dns}
			dialer = &customDnsDialer
		}
	}
	return dialer.DialContext(ctx, network, dst)
}

func (d *CoreDialer) handshake(ctx context.Context, conn net.Conn, serverName string, base *tls.Config) (net.Conn, error) {
	config := base.Clone()
	if config == nil {
		config = &tls.Config{}
	}
	if config.ServerName == "" {
		config.ServerName = serverName
	}
	config.NextProtos = []string{"http/1.1"}
	c := tls.Client(conn, config)
	if err := c.HandshakeContext(ctx); err != nil {
		return nil, err
	}
	return c, nil
}
