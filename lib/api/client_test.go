package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientDo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/ok":
			var in map[string]string
			_ = json.NewDecoder(r.Body).Decode(&in)
			_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["address"]})
		case "/app-error":
			_, _ = w.Write([]byte(`{"error":"Agent not found"}`))
		case "/bad-request":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"Invalid Ethereum address format"}`))
		case "/down":
			w.WriteHeader(http.StatusServiceUnavailable)
		case "/garbage":
			_, _ = w.Write([]byte(`not json`))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", 0)
	ctx := context.Background()

	var out map[string]string
	require.NoError(t, c.Post(ctx, "/ok", map[string]string{"address": "0xabc"}, &out))
	assert.Equal(t, "0xabc", out["echo"])

	err := c.Post(ctx, "/app-error", nil, nil)
	var ae *ApplicationError
	require.True(t, errors.As(err, &ae), "got %v", err)
	assert.Equal(t, "Agent not found", ae.Message)
	assert.Equal(t, "Agent not found", RemoteMessage(err))

	err = c.Post(ctx, "/bad-request", nil, nil)
	var ne *NetworkError
	require.True(t, errors.As(err, &ne), "got %v", err)
	assert.Equal(t, http.StatusBadRequest, ne.Status)
	assert.Equal(t, "Invalid Ethereum address format", RemoteMessage(err))

	err = c.Get(ctx, "/down", nil)
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, http.StatusServiceUnavailable, ne.Status)
	assert.Equal(t, "", RemoteMessage(err))

	err = c.Get(ctx, "/garbage", &out)
	require.True(t, errors.As(err, &ne))
}

func TestClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewClient(url, 0).Post(context.Background(), "/x", nil, nil)

	var ne *NetworkError
	require.True(t, errors.As(err, &ne), "got %v", err)
	assert.Equal(t, 0, ne.Status)
	assert.NotNil(t, ne.Unwrap())
}

func TestValidation(t *testing.T) {
	assert.True(t, errors.Is(Validation("x"), ErrValidation))
}

func TestMapRiskLevel(t *testing.T) {
	for in, exp := range map[string]string{"HIGH": RiskHigh, "medium": RiskMedium, "Low": RiskLow, "none": RiskNone, "": RiskNone, "??": RiskNone} {
		assert.Equal(t, exp, MapRiskLevel(in), in)
	}
}
