package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// AgentType is the type of every agent created from the portal.
const AgentType = "Beta"

// Tool is a dashboard tool an agent role can be given. Unavailable tools are listed but cannot be assigned.
type Tool struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

// DefaultRoles maps every agent role to the dashboard tools aligned with it.
var DefaultRoles = map[string][]Tool{ //nolint:gochecknoglobals // static lookup table
	"Miner": {
		{Name: "Security Check", ID: "SecurityCheck", Available: true},
		{Name: "Interest Rate Tracker", ID: "InvestmentSimulator", Available: true},
		{Name: "Income Portfolio Builder", ID: "FinancialRoadmap", Available: true},
	},
	"Builder": {
		{Name: "Smart Contract Builder", ID: "SmartContractBuilder"},
		{Name: "DeFi Automation Tool", ID: "InvestmentSimulator", Available: true},
		{Name: "Strategy Optimizer", ID: "StrategyOptimizer"},
	},
	"Defender": {
		{Name: "Risk Monitoring Dashboard", ID: "SecurityCheck", Available: true},
		{Name: "Stop Loss Automation", ID: "StopLossAutomation"},
		{Name: "Asset Protection Tool", ID: "Notifications"},
	},
	"Scout": {
		{Name: "Market Trend Analyzer", ID: "VisualizeWallet", Available: true},
		{Name: "Opportunity Detector", ID: "FinancialRoadmap", Available: true},
		{Name: "Sentiment Analyzer", ID: "QuantumCategory"},
	},
	"Healer": {
		{Name: "Portfolio Rebalancer", ID: "RetirementPlanning"},
		{Name: "Asset Allocation Optimizer", ID: "InvestmentSimulator", Available: true},
		{Name: "Risk Mitigator", ID: "FinancialHealth"},
	},
}

// Agent creation status messages.
const (
	MsgAgentInvalid   = "Please provide an agent name, assign tools, and select a role."
	MsgAgentTransport = "An error occurred while creating the agent."
)

// AgentRequest is the input of an agent creation.
type AgentRequest struct {
	Name  string   `json:"agent_name"`
	Type  string   `json:"agent_type"`
	Role  string   `json:"agent_role"`
	Tools []string `json:"assigned_tools"`
}

// Agents creates agents on the agents backend.
type Agents struct {
	c     *Client
	Roles map[string][]Tool
}

// NewAgents returns an Agents client using the default role table.
func NewAgents(c *Client) *Agents {
	return &Agents{c: c, Roles: DefaultRoles}
}

// RoleDisabled reports whether role is unknown or all its tools are unavailable.
func (a *Agents) RoleDisabled(role string) bool {
	tools, ok := a.Roles[role]
	if !ok {
		return true
	}

	for _, t := range tools {
		if t.Available {
			return false
		}
	}

	return true
}

// Create validates r and posts it to the agents backend. It always returns the status message to show to the user,
// together with the backend reply on success.
func (a *Agents) Create(ctx context.Context, r AgentRequest) (string, map[string]interface{}, error) {
	if r.Name == "" || len(r.Tools) == 0 || r.Role == "" || a.RoleDisabled(r.Role) {
		return MsgAgentInvalid, nil, Validation("agent name, tools and an enabled role are required")
	}

	r.Type = AgentType

	reply := map[string]interface{}{}
	if err := a.c.Post(ctx, "/agents_create", r, &reply); err != nil {
		if msg := RemoteMessage(err); msg != "" {
			return "Error: " + msg, nil, err
		}

		var ne *NetworkError
		if errors.As(err, &ne) && ne.Status != 0 {
			return "Error: " + ne.Error(), nil, err
		}

		return MsgAgentTransport, nil, err
	}

	return fmt.Sprintf("Agent %q created successfully with tools: %s.", r.Name, strings.Join(r.Tools, ", ")), reply, nil
}
