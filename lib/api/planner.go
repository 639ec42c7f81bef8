package api

import (
	"context"
	"encoding/json"
	"sync"
)

// Portfolio identifies the wallet analysed by the quantum and optimisation services.
type Portfolio struct {
	WalletAddress string `json:"walletAddress"`
}

type portfolioRequest struct {
	Portfolio Portfolio `json:"portfolio"`
}

// RoadmapMetrics is the reply of the roadmap metrics endpoint. Values are passed through untouched.
type RoadmapMetrics struct {
	WealthPlan       json.RawMessage `json:"wealth_plan"`
	SavingsStrategy  json.RawMessage `json:"savings_strategy"`
	RiskManagement   json.RawMessage `json:"risk_management"`
	InvestmentGrowth json.RawMessage `json:"investment_growth"`
}

// RiskAnalysis is the risk_analysis object of the quantum service.
type RiskAnalysis map[string]interface{}

// Explanation returns the human readable explanation, if any.
func (r RiskAnalysis) Explanation() string {
	s, _ := r["explanation"].(string)

	return s
}

// Optimization is the reply of the portfolio optimisation endpoint.
type Optimization struct {
	OptimizedPortfolio json.RawMessage `json:"optimized_portfolio"`
	InvestmentGrowth   json.RawMessage `json:"investment_growth"`
	RiskManagement     json.RawMessage `json:"risk_management"`
}

// Roadmap gathers the roadmap view. Each part fails independently.
type Roadmap struct {
	Metrics    *RoadmapMetrics
	MetricsErr error
	Risk       RiskAnalysis
	RiskErr    error
}

// Simulation gathers the investment simulator view. Each part fails independently.
type Simulation struct {
	Optimization    *Optimization
	OptimizationErr error
	Risk            RiskAnalysis
	RiskErr         error
}

// Planner calls the metrics and quantum services.
type Planner struct {
	metrics *Client
	quantum *Client
}

// NewPlanner returns a Planner.
func NewPlanner(metrics, quantum *Client) *Planner {
	return &Planner{metrics: metrics, quantum: quantum}
}

// Metrics fetches the roadmap metrics of address.
func (p *Planner) Metrics(ctx context.Context, address string) (*RoadmapMetrics, error) {
	var m RoadmapMetrics
	if err := p.metrics.Post(ctx, "/basic_metrics", map[string]string{"address": address}, &m); err != nil {
		return nil, err
	}

	return &m, nil
}

// QuantumRisk fetches the quantum risk analysis of address.
func (p *Planner) QuantumRisk(ctx context.Context, address string) (RiskAnalysis, error) {
	var reply struct {
		RiskAnalysis RiskAnalysis `json:"risk_analysis"`
	}

	err := p.quantum.Post(ctx, "/quantum_risk_analysis", portfolioRequest{Portfolio{WalletAddress: address}}, &reply)
	if err != nil {
		return nil, err
	}

	return reply.RiskAnalysis, nil
}

// Optimize fetches the optimised portfolio of address.
func (p *Planner) Optimize(ctx context.Context, address string) (*Optimization, error) {
	var o Optimization
	if err := p.metrics.Post(ctx, "/portfolio_optimization", portfolioRequest{Portfolio{WalletAddress: address}}, &o); err != nil {
		return nil, err
	}

	return &o, nil
}

// Roadmap fetches metrics and risk analysis concurrently.
func (p *Planner) Roadmap(ctx context.Context, address string) Roadmap {
	var (
		r  Roadmap
		wg sync.WaitGroup
	)

	wg.Add(2)

	go func() {
		defer wg.Done()
		r.Metrics, r.MetricsErr = p.Metrics(ctx, address)
	}()

	go func() {
		defer wg.Done()
		r.Risk, r.RiskErr = p.QuantumRisk(ctx, address)
	}()

	wg.Wait()

	return r
}

// Simulate fetches the portfolio optimisation and risk analysis concurrently.
func (p *Planner) Simulate(ctx context.Context, address string) Simulation {
	var (
		s  Simulation
		wg sync.WaitGroup
	)

	wg.Add(2)

	go func() {
		defer wg.Done()
		s.Optimization, s.OptimizationErr = p.Optimize(ctx, address)
	}()

	go func() {
		defer wg.Done()
		s.Risk, s.RiskErr = p.QuantumRisk(ctx, address)
	}()

	wg.Wait()

	return s
}
