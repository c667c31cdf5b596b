package dialer

import (
	"bufio"
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frankli0324/go-transporter/internal/errors"
	"github.com/frankli0324/go-transporter/internal/model"
)

func prepare(t *testing.T, url string) *model.PreparedRequest {
	t.Helper()
	pr, err := (&model.Request{URL: url}).Prepare()
	require.NoError(t, err)
	return pr
}

// listen starts a TCP server handing every accepted connection to handle.
func listen(t *testing.T, handle func(net.Conn)) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	go func() {
		for {
			c, err := l.Accept()
			if err != nil {
				return
			}
			go func() {
				defer c.Close()
				handle(c)
			}()
		}
	}()
	return l.Addr().String()
}

// readRequestHead consumes one request head and returns its lines.
func readRequestHead(br *bufio.Reader) []string {
	var lines []string
	for {
		line, err := br.ReadString('\n')
		if err != nil || line == "\r\n" {
			return lines
		}
		lines = append(lines, strings.TrimRight(line, "\r\n"))
	}
}

func TestDialStaticHost(t *testing.T) {
	addr := listen(t, func(c net.Conn) { io.WriteString(c, "hi") })
	_, port, _ := net.SplitHostPort(addr)

	d := &CoreDialer{ResolveConfig: &ResolveConfig{
		StaticHosts: map[string]string{"api.internal": "127.0.0.1"},
	}}
	conn, err := d.Dial(context.Background(), prepare(t, "http://api.internal:"+port+"/"))
	require.NoError(t, err)
	defer conn.Close()
	assert.False(t, conn.Forward)

	b, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(b))
}

func TestDialRefused(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	l.Close()

	url := "http://" + addr + "/"
	_, err = (&CoreDialer{}).Dial(context.Background(), prepare(t, url))
	var te errors.TransportError
	require.True(t, errors.As(err, &te), "%v", err)
	assert.Equal(t, errors.CouldntConnect, te.Code)
	assert.Equal(t, url, te.URL)
	assert.Contains(t, err.Error(), "the request to "+url)
}

func TestDialExpiredContext(t *testing.T) {
	addr := listen(t, func(net.Conn) {})
	ctx, cancel := context.WithTimeout(context.Background(), -time.Second)
	defer cancel()

	_, err := (&CoreDialer{}).Dial(ctx, prepare(t, "http://"+addr+"/"))
	assert.ErrorIs(t, err, errors.TransportError{Code: errors.OperationTimedOut})
}

func TestDialUnsupportedProxy(t *testing.T) {
	d := &CoreDialer{GetProxy: func(context.Context, *model.PreparedRequest) (string, error) {
		return "socks5://127.0.0.1:1080", nil
	}}
	_, err := d.Dial(context.Background(), prepare(t, "http://example.com/"))
	assert.ErrorIs(t, err, errors.TransportError{Code: errors.UnsupportedProtocol})
}

func TestDialForwardProxy(t *testing.T) {
	addr := listen(t, func(net.Conn) {})
	d := &CoreDialer{GetProxy: func(_ context.Context, r *model.PreparedRequest) (string, error) {
		assert.Equal(t, "example.com", r.U.Host)
		return "http://user:secret@" + addr, nil
	}}

	conn, err := d.Dial(context.Background(), prepare(t, "http://example.com/"))
	require.NoError(t, err)
	defer conn.Close()
	assert.True(t, conn.Forward)
	assert.Equal(t, "Basic dXNlcjpzZWNyZXQ=", conn.ProxyHeader.Get("proxy-authorization"))
	assert.Equal(t, addr, conn.RemoteAddr().String())
}

func TestDialConnectRefused(t *testing.T) {
	heads := make(chan []string, 1)
	addr := listen(t, func(c net.Conn) {
		heads <- readRequestHead(bufio.NewReader(c))
		io.WriteString(c, "HTTP/1.1 403 Forbidden\r\nContent-Length: 0\r\n\r\n")
	})
	d := &CoreDialer{GetProxy: func(context.Context, *model.PreparedRequest) (string, error) {
		return "http://" + addr, nil
	}}

	_, err := d.Dial(context.Background(), prepare(t, "https://example.com/"))
	var te errors.TransportError
	require.True(t, errors.As(err, &te), "%v", err)
	assert.Equal(t, errors.ProxyError, te.Code)
	assert.Equal(t, "https://example.com/", te.URL)
	var se errors.HTTPStatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 403, se.Code)
	head := <-heads
	require.NotEmpty(t, head)
	assert.Equal(t, "CONNECT example.com:443 HTTP/1.1", head[0])
}

func TestDialConnectTunnel(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "tunnelled")
	}))
	defer srv.Close()
	target := srv.Listener.Addr().String()

	proxy := listen(t, func(c net.Conn) {
		br := bufio.NewReader(c)
		head := readRequestHead(br)
		if len(head) == 0 || head[0] != "CONNECT "+target+" HTTP/1.1" {
			io.WriteString(c, "HTTP/1.1 400 Bad Request\r\n\r\n")
			return
		}
		up, err := net.Dial("tcp", target)
		if err != nil {
			io.WriteString(c, "HTTP/1.1 502 Bad Gateway\r\n\r\n")
			return
		}
		defer up.Close()
		io.WriteString(c, "HTTP/1.1 200 Connection established\r\n\r\n")
		go io.Copy(up, br)
		io.Copy(c, up)
	})

	roots := srv.Client().Transport.(*http.Transport).TLSClientConfig.RootCAs
	d := &CoreDialer{
		TLSConfig: &tls.Config{RootCAs: roots},
		GetProxy: func(context.Context, *model.PreparedRequest) (string, error) {
			return "http://" + proxy, nil
		},
	}
	conn, err := d.Dial(context.Background(), prepare(t, "https://"+target+"/"))
	require.NoError(t, err)
	defer conn.Close()
	assert.False(t, conn.Forward)
	_, ok := conn.Conn.(*tls.Conn)
	assert.True(t, ok)

	_, err = io.WriteString(conn, "GET / HTTP/1.1\r\nHost: "+target+"\r\nConnection: close\r\n\r\n")
	require.NoError(t, err)
	b, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(b), "tunnelled"), string(b))
}

func TestEnvironmentProxy(t *testing.T) {
	t.Setenv("HTTP_PROXY", "http://proxy.local:3128")
	t.Setenv("NO_PROXY", "internal.example")
	get := EnvironmentProxy()

	p, err := get(context.Background(), prepare(t, "http://example.com/"))
	require.NoError(t, err)
	assert.Equal(t, "http://proxy.local:3128", p)

	p, err = get(context.Background(), prepare(t, "http://internal.example/"))
	require.NoError(t, err)
	assert.Empty(t, p)
}

func TestResolveConfigMerge(t *testing.T) {
	own := &ResolveConfig{StaticHosts: map[string]string{"a": "1.1.1.1"}}
	fallback := &ResolveConfig{Network: "ip4", StaticHosts: map[string]string{"a": "2.2.2.2", "b": "3.3.3.3"}}

	m := own.Merge(fallback)
	assert.Equal(t, "ip4", m.Network)
	assert.Equal(t, map[string]string{"a": "1.1.1.1", "b": "3.3.3.3"}, m.StaticHosts)
	assert.Equal(t, map[string]string{"a": "1.1.1.1"}, own.StaticHosts)
}
