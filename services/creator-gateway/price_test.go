package creatorgateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPriceClientQuotesUSD(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "solana", r.URL.Query().Get("ids"))
		require.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		_, _ = w.Write([]byte(`{"solana":{"usd":151.25}}`))
	}))
	defer srv.Close()

	client := NewPriceClient(srv.Client(), PriceConfig{Endpoint: srv.URL, AssetID: "solana"}, nil)
	require.Equal(t, 151.25, client.NativeUSD(context.Background()))
}

func TestPriceClientFailuresYieldZero(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		},
		"garbage": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		},
		"missing asset": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"bitcoin":{"usd":1}}`))
		},
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(handler)
			defer srv.Close()
			client := NewPriceClient(srv.Client(), PriceConfig{Endpoint: srv.URL, AssetID: "solana"}, nil)
			require.Zero(t, client.NativeUSD(context.Background()))
		})
	}

	unreachable := NewPriceClient(nil, PriceConfig{Endpoint: "http://127.0.0.1:0", AssetID: "solana"}, nil)
	require.Zero(t, unreachable.NativeUSD(context.Background()))
}
