package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoadmapAndSimulate(t *testing.T) {
	metrics := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/basic_metrics":
			var in map[string]string
			_ = json.NewDecoder(r.Body).Decode(&in)
			assert.Equal(t, testAddr, in["address"])
			_, _ = w.Write([]byte(`{"wealth_plan":{"target":1},"savings_strategy":"save","risk_management":[],"investment_growth":3}`))
		case "/portfolio_optimization":
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer metrics.Close()

	quantum := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Portfolio Portfolio `json:"portfolio"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		assert.Equal(t, testAddr, in.Portfolio.WalletAddress)
		_, _ = w.Write([]byte(`{"risk_analysis":{"explanation":"low exposure","score":0.2}}`))
	}))
	defer quantum.Close()

	p := NewPlanner(NewClient(metrics.URL, 0), NewClient(quantum.URL, 0))
	ctx := context.Background()

	rm := p.Roadmap(ctx, testAddr)
	require.NoError(t, rm.MetricsErr)
	require.NoError(t, rm.RiskErr)
	assert.JSONEq(t, `{"target":1}`, string(rm.Metrics.WealthPlan))
	assert.Equal(t, "low exposure", rm.Risk.Explanation())

	sim := p.Simulate(ctx, testAddr)
	assert.Error(t, sim.OptimizationErr)
	assert.Nil(t, sim.Optimization)
	require.NoError(t, sim.RiskErr)
	assert.Equal(t, 0.2, sim.Risk["score"])
}
