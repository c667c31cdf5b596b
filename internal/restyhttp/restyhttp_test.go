package restyhttp

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/frankli0324/go-transporter/internal/config"
	"github.com/frankli0324/go-transporter/internal/errors"
	"github.com/frankli0324/go-transporter/internal/model"
)

func echoServer(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
			return
		case "/moved":
			http.Redirect(w, r, "/elsewhere", http.StatusFound)
			return
		case "/slow":
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			return
		}
		b, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Method", r.Method)
		w.Header().Set("X-Query", r.URL.RawQuery)
		w.Header().Set("X-Content-Type", r.Header.Get("Content-Type"))
		w.Write(b)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSend(t *testing.T) {
	srv := echoServer(t)
	tr := New(config.Default(), nil)

	t.Run("GetParams", func(t *testing.T) {
		resp, err := tr.Send(context.Background(), &model.Request{
			URL:    srv.URL + "/?a=1",
			Params: model.Params{"b": 2},
		})
		require.NoError(t, err)
		assert.Equal(t, 200, resp.Status.Code)
		assert.Equal(t, "OK", resp.Status.Message)
		assert.Equal(t, "HTTP/1.1", resp.Proto)
		assert.Equal(t, "GET", resp.Get("x-method"))
		assert.Equal(t, "a=1&b=2", resp.Get("X-Query"))
		assert.Empty(t, resp.Body)
	})

	t.Run("JSON", func(t *testing.T) {
		resp, err := tr.Send(context.Background(), &model.Request{
			Method: "PATCH",
			URL:    srv.URL,
			Header: model.NewHeader("content-type", "application/json"),
			Params: model.Params{"k": []int{1, 2}},
		})
		require.NoError(t, err)
		assert.Equal(t, "PATCH", resp.Get("X-Method"))
		assert.Equal(t, "application/json", resp.Get("X-Content-Type"))
		var got map[string][]int
		require.NoError(t, json.Unmarshal(resp.Body, &got))
		assert.Equal(t, map[string][]int{"k": {1, 2}}, got)
	})

	t.Run("Form", func(t *testing.T) {
		resp, err := tr.Send(context.Background(), &model.Request{
			Method: "POST",
			URL:    srv.URL,
			Params: model.Params{"z": "1", "a": "x y"},
		})
		require.NoError(t, err)
		assert.Equal(t, "application/x-www-form-urlencoded", resp.Get("X-Content-Type"))
		assert.Equal(t, "a=x+y&z=1", string(resp.Body))
	})
}

func TestSendStatusErrors(t *testing.T) {
	srv := echoServer(t)
	tr := New(config.Default(), nil)

	for path, code := range map[string]int{"/missing": 404, "/moved": 302} {
		_, err := tr.Send(context.Background(), &model.Request{URL: srv.URL + path})
		var se errors.HTTPStatusError
		require.True(t, errors.As(err, &se), "%s: %v", path, err)
		assert.Equal(t, code, se.Code)
		assert.Equal(t, srv.URL+path, se.URL)
	}
}

func TestSendTransportErrors(t *testing.T) {
	srv := echoServer(t)

	cfg := config.Default()
	cfg.Timeout = 100 * time.Millisecond
	_, err := New(cfg, nil).Send(context.Background(), &model.Request{URL: srv.URL + "/slow"})
	assert.ErrorIs(t, err, errors.TransportError{Code: errors.OperationTimedOut})

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	l.Close()
	_, err = New(config.Default(), nil).Send(context.Background(), &model.Request{URL: "http://" + addr + "/"})
	assert.ErrorIs(t, err, errors.TransportError{Code: errors.CouldntConnect})

	_, err = New(config.Default(), nil).Send(context.Background(), &model.Request{URL: "gopher://example.com/"})
	assert.ErrorIs(t, err, errors.TransportError{Code: errors.UnsupportedProtocol})
}

func TestSendStaticHost(t *testing.T) {
	srv := echoServer(t)
	_, port, _ := net.SplitHostPort(srv.Listener.Addr().String())

	cfg := config.Default()
	cfg.Resolve = map[string]string{"api.internal": "127.0.0.1"}
	resp, err := New(cfg, nil).Send(context.Background(), &model.Request{URL: "http://api.internal:" + port + "/"})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status.Code)
}

func TestSendHeaderCasing(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	lines := make(chan []string, 1)
	go func() {
		c, err := l.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		br := bufio.NewReader(c)
		var head []string
		for {
			line, err := br.ReadString('\n')
			if err != nil || line == "\r\n" {
				break
			}
			head = append(head, strings.TrimRight(line, "\r\n"))
		}
		lines <- head
		io.WriteString(c, "HTTP/1.1 204 No Content\r\n\r\n")
	}()

	resp, err := New(config.Default(), nil).Send(context.Background(), &model.Request{
		URL:    "http://" + l.Addr().String() + "/",
		Header: model.NewHeader("x-lower-case", "v", "user-agent", "probe"),
	})
	require.NoError(t, err)
	assert.Equal(t, 204, resp.Status.Code)

	head := <-lines
	assert.Contains(t, head, "x-lower-case: v")
	assert.Contains(t, head, "User-Agent: probe")
	assert.Contains(t, head, "Accept: */*")
}

func TestSendLogsCallID(t *testing.T) {
	srv := echoServer(t)
	core, logs := observer.New(zapcore.DebugLevel)
	tr := New(config.Default(), zap.New(core))

	_, err := tr.Send(context.Background(), &model.Request{URL: srv.URL})
	require.NoError(t, err)
	_, err = tr.Send(context.Background(), &model.Request{URL: srv.URL + "/missing"})
	require.Error(t, err)

	sent := logs.FilterMessage("send request").All()
	require.Len(t, sent, 2)
	assert.NotEqual(t, sent[0].ContextMap()["call_id"], sent[1].ContextMap()["call_id"])

	received := logs.FilterMessage("response received").All()
	require.Len(t, received, 1)
	fields := received[0].ContextMap()
	assert.Equal(t, sent[0].ContextMap()["call_id"], fields["call_id"])
	assert.Contains(t, fields, "elapsed")
	assert.EqualValues(t, 200, fields["status"])

	failed := logs.FilterMessage("request failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, sent[1].ContextMap()["call_id"], failed[0].ContextMap()["call_id"])
	assert.Contains(t, failed[0].ContextMap(), "elapsed")
}
