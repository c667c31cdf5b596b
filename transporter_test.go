package transporter

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryTransportersAgree(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/teapot" {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		b, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Echo", "  spaced   value ")
		w.WriteHeader(http.StatusAccepted)
		w.Write(b)
	}))
	defer srv.Close()

	reg := NewRegistry()
	assert.False(t, reg.Register(DefaultHTTP, nil))

	for _, name := range reg.Names() {
		t.Run(name, func(t *testing.T) {
			tr, err := reg.Build(name, DefaultConfig(), nil)
			require.NoError(t, err)

			resp, err := tr.Send(context.Background(), &Request{
				Method: "POST",
				URL:    srv.URL + "/echo",
				Header: NewHeader("Content-Type", "application/json"),
				Params: Params{"a": "b"},
			})
			require.NoError(t, err)
			assert.Equal(t, Status{Code: 202, Message: "Accepted"}, resp.Status)
			assert.Equal(t, "spaced value", resp.Get("x-echo"))
			assert.JSONEq(t, `{"a":"b"}`, string(resp.Body))

			_, err = tr.Send(context.Background(), &Request{URL: srv.URL + "/teapot"})
			var se HTTPStatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, 418, se.Code)
			assert.Equal(t, "I'm a teapot", se.Message)
		})
	}
}
