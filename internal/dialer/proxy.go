package dialer

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"math/rand"
	"net"
	"net/url"
	"time"

	"golang.org/x/net/http/httpproxy"

	"github.com/frankli0324/go-transporter/internal/errors"
	"github.com/frankli0324/go-transporter/internal/model"
	"github.com/frankli0324/go-transporter/internal/transport"
)

type ProxyConfig struct {
	TLSConfig      *tls.Config // the [*tls.Config] to use with https proxies, if nil, *[CoreDialer.TLSConfig] will be used
	ResolveLocally bool        // resolve the target locally and CONNECT to its address
	ResolveConfig  *ResolveConfig // overrides the resolver config of the dialer for proxy
}

func (c *ProxyConfig) Clone() *ProxyConfig {
	if c == nil {
		return nil
	}
	return &ProxyConfig{
		TLSConfig:      c.TLSConfig.Clone(),
		ResolveLocally: c.ResolveLocally,
		ResolveConfig:  c.ResolveConfig.Clone(),
	}
}

// EnvironmentProxy returns a GetProxy function honouring HTTP_PROXY,
// HTTPS_PROXY and NO_PROXY (and their lowercase forms) as they were set
// when EnvironmentProxy was called.
func EnvironmentProxy() func(ctx context.Context, r *model.PreparedRequest) (string, error) {
	proxyFunc := httpproxy.FromEnvironment().ProxyFunc()
	return func(_ context.Context, r *model.PreparedRequest) (string, error) {
		u, err := proxyFunc(r.U)
		if err != nil || u == nil {
			return "", err
		}
		return u.String(), nil
	}
}

func (d *CoreDialer) tryDialProxy(ctx context.Context, r *model.PreparedRequest, host, port string) (*Conn, error) {
	if d.GetProxy == nil {
		return nil, nil
	}
	proxy, err := d.GetProxy(ctx, r)
	if err != nil || proxy == "" {
		return nil, err
	}
	proxyU, err := url.Parse(proxy)
	if err != nil {
		return nil, errors.TransportError{Code: errors.CouldntResolveProxy, Err: err}
	}
	if r.U.Scheme == "http" {
		conn, err := d.dialProxy(ctx, proxyU)
		if err != nil {
			return nil, err
		}
		return &Conn{Conn: conn, Forward: true, ProxyHeader: proxyAuth(proxyU)}, nil
	}
	conn, err := d.DialContextOverProxy(ctx, host, port, proxyU)
	if err != nil {
		return nil, err
	}
	return &Conn{Conn: conn}, nil
}

func (d *CoreDialer) dialProxy(ctx context.Context, proxy *url.URL) (net.Conn, error) {
	if proxy.Scheme != "http" && proxy.Scheme != "https" { // TODO: socks5 proxies
		return nil, errors.TransportError{Code: errors.UnsupportedProtocol, Err: fmt.Errorf("unsupported proxy scheme: %s", proxy.Scheme)}
	}
	port := proxy.Port()
	if port == "" {
		port = schemes[proxy.Scheme]
	}
	conn, err := d.dialTCP(ctx, d.proxyResolveConfig(), proxy.Hostname(), port)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) {
			return nil, errors.TransportError{Code: errors.CouldntResolveProxy, Err: err}
		}
		return nil, err
	}
	if proxy.Scheme == "https" {
		tlsCfg := d.TLSConfig
		if d.ProxyConfig != nil && d.ProxyConfig.TLSConfig != nil {
			tlsCfg = d.ProxyConfig.TLSConfig
		}
		c, err := d.handshake(ctx, conn, proxy.Hostname(), tlsCfg)
		if err != nil {
			conn.Close()
			return nil, errors.TransportError{Code: errors.SSLConnectError, Err: err}
		}
		conn = c
	}
	return conn, nil
}

func (d *CoreDialer) proxyResolveConfig() *ResolveConfig {
	if d.ProxyConfig == nil || d.ProxyConfig.ResolveConfig == nil {
		return d.ResolveConfig
	}
	return d.ProxyConfig.ResolveConfig.Merge(d.ResolveConfig)
}

// DialContextOverProxy opens a CONNECT tunnel to host:port through an http(s)
// proxy. This part of logic may be reused when wrapping *[CoreDialer] into
// a new custom [Dialer]
func (d *CoreDialer) DialContextOverProxy(ctx context.Context, host, port string, proxy *url.URL) (net.Conn, error) {
	conn, err := d.dialProxy(ctx, proxy)
	if err != nil {
		return nil, err
	}

	if d.ProxyConfig != nil && d.ProxyConfig.ResolveLocally {
		if res, ok := d.ResolveConfig.staticHost(host); ok {
			host = res
		} else {
			ips, err := d.lookup(ctx, d.ResolveConfig, host)
			if err != nil {
				conn.Close()
				return nil, err
			}
			host = ips[rand.Intn(len(ips))].String()
		}
	}

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
		defer conn.SetDeadline(noDeadline)
	}
	addr := net.JoinHostPort(host, port)
	bw := bufio.NewWriter(conn)
	bw.WriteString("CONNECT " + addr + " HTTP/1.1\r\nHost: " + addr + "\r\n")
	for _, line := range proxyAuth(proxy).Lines() {
		bw.WriteString(line + "\r\n")
	}
	bw.WriteString("\r\n")
	if err := bw.Flush(); err != nil {
		conn.Close()
		return nil, errors.TransportError{Code: errors.SendError, Err: err}
	}

	connReq := &model.PreparedRequest{Method: "CONNECT", URL: proxy.Redacted()}
	s := &transport.TransferState{}
	if err := (transport.HTTP1{}).Read(conn, connReq, s); err != nil {
		conn.Close()
		return nil, errors.TransportError{Code: errors.ProxyError, Err: err}
	}
	if _, err := transport.Parse(connReq.URL, s); err != nil {
		conn.Close()
		return nil, errors.TransportError{Code: errors.ProxyError, Err: fmt.Errorf("proxy server refused CONNECT: %w", err)}
	}
	return conn, nil
}

var noDeadline time.Time

func (c *ResolveConfig) staticHost(host string) (string, bool) {
	if c == nil {
		return "", false
	}
	v, ok := c.StaticHosts[host]
	return v, ok
}

func proxyAuth(proxy *url.URL) model.Header {
	if proxy.User == nil {
		return nil
	}
	pw, _ := proxy.User.Password()
	auth := proxy.User.Username() + ":" + pw
	return model.NewHeader("Proxy-Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(auth)))
}
