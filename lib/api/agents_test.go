package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAgent(t *testing.T) {
	var calls int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)

		var in AgentRequest
		_ = json.NewDecoder(r.Body).Decode(&in)

		if in.Name == "Dup" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"Agent already exists"}`))

			return
		}

		assert.Equal(t, AgentType, in.Type)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"message":"created","nft_image":"https://img"}`))
	}))
	defer srv.Close()

	a := NewAgents(NewClient(srv.URL, 0))
	ctx := context.Background()

	msg, reply, err := a.Create(ctx, AgentRequest{Name: "Neo", Role: "Scout", Tools: []string{"VisualizeWallet", "FinancialRoadmap"}})
	require.NoError(t, err)
	assert.Equal(t, `Agent "Neo" created successfully with tools: VisualizeWallet, FinancialRoadmap.`, msg)
	assert.Equal(t, "https://img", reply["nft_image"])

	msg, _, err = a.Create(ctx, AgentRequest{Name: "Dup", Role: "Miner", Tools: []string{"SecurityCheck"}})
	require.Error(t, err)
	assert.Equal(t, "Error: Agent already exists", msg)

	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestCreateAgentValidation(t *testing.T) {
	a := NewAgents(NewClient("http://127.0.0.1:1", 0))
	a.Roles = map[string][]Tool{
		"Miner":  {{ID: "SecurityCheck", Available: true}},
		"Healer": {{ID: "RetirementPlanning"}},
	}

	cases := []AgentRequest{
		{Role: "Miner", Tools: []string{"SecurityCheck"}},
		{Name: "n", Role: "Miner"},
		{Name: "n", Tools: []string{"SecurityCheck"}},
		{Name: "n", Role: "Healer", Tools: []string{"RetirementPlanning"}},
		{Name: "n", Role: "Wizard", Tools: []string{"SecurityCheck"}},
	}

	for i, c := range cases {
		msg, _, err := a.Create(context.Background(), c)
		assert.True(t, errors.Is(err, ErrValidation), "case %d: %v", i, err)
		assert.Equal(t, MsgAgentInvalid, msg, "case %d", i)
	}
}

func TestCreateAgentTransport(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	msg, _, err := NewAgents(NewClient(url, 0)).Create(context.Background(),
		AgentRequest{Name: "n", Role: "Miner", Tools: []string{"SecurityCheck"}})
	require.Error(t, err)
	assert.Equal(t, MsgAgentTransport, msg)
}

func TestDefaultRolesAllEnabled(t *testing.T) {
	a := NewAgents(nil)
	for role := range DefaultRoles {
		assert.False(t, a.RoleDisabled(role), role)
	}
}
