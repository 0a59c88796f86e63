package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hbbs "github.com/ffrrbb/rustdesk-server"
)

func TestHTTPServer(t *testing.T) {
	srv, err := hbbs.New(hbbs.WithDBURL(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())))
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, srv.Start(ctx))
	defer func() { _ = srv.Stop(ctx) }()

	_, err = srv.Register(ctx, hbbs.RegisterRequest{
		ID:        "peer-A",
		PublicKey: []byte("K1"),
		Addr:      netip.MustParseAddrPort("10.0.0.1:21116"),
	})
	require.NoError(t, err)

	ts := httptest.NewServer(newHTTPServer("", srv).Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok 1\n", string(body))

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), `hbbs_registrations_total{result="OK"} 1`)
}
