package dialer

import (
	"github.com/frankli0324/go-transporter/internal/dialer"
)

// Dialers are responsible for creating the connection an HTTP/1.1 request is
// written to and its response read from, for example a raw TCP connection,
// a TLS session on top of it, or a tunnel through a proxy.
//
// A Dialer MUST NOT hold active connection states: every Dial returns a fresh
// connection owned and closed by the caller. It SHOULD hold the connection
// related configs like [ProxyConfig] or [ResolveConfig].
type Dialer = dialer.Dialer

// Conn is a dialed connection. Forward reports a forwarding HTTP proxy on the
// other end.
type Conn = dialer.Conn

// CoreDialer is the default implementation of the [Dialer] interface.
type CoreDialer = dialer.CoreDialer

type ProxyConfig = dialer.ProxyConfig

// we need a dedicated resolver for two scenarios:
//
//  1. Resolve remote address locally in proxied requests
//  2. to customize the DNS server used for resolving hostname
//
// the standard library didn't provide a intuitive way of
// setting DNS server addresses since it only follows the
// system configuration (e.g. /etc/resolv.conf), leaving us only
// one option of using [net.Resolver.Dial] hook with a Go Resolver.
type ResolveConfig = dialer.ResolveConfig

// EnvironmentProxy returns a [CoreDialer.GetProxy] honouring HTTP_PROXY,
// HTTPS_PROXY and NO_PROXY.
var EnvironmentProxy = dialer.EnvironmentProxy
