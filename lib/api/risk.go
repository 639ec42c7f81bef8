package api

import "strings"

// Risk levels attached to transactions.
const (
	RiskHigh   = "High"
	RiskMedium = "Medium"
	RiskLow    = "Low"
	RiskNone   = "None"
)

// MapRiskLevel normalises a risk string from the analytics services. Unknown values map to None.
func MapRiskLevel(risk string) string {
	switch strings.ToLower(risk) {
	case "high":
		return RiskHigh
	case "medium":
		return RiskMedium
	case "low":
		return RiskLow
	default:
		return RiskNone
	}
}
