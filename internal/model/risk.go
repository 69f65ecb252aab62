package model

import (
	"fmt"
	"strings"
)

// RiskLevel is the categorical dropout-risk label.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "High"
	RiskMedium RiskLevel = "Medium"
	RiskLow    RiskLevel = "Low"
)

// RiskFilter narrows a roster to one risk level.
type RiskFilter string

const (
	FilterAll    RiskFilter = "all"
	FilterHigh   RiskFilter = "high"
	FilterMedium RiskFilter = "medium"
	FilterLow    RiskFilter = "low"
)

// ParseRiskFilter accepts any casing; an empty value means all.
func ParseRiskFilter(raw string) (RiskFilter, error) {
	switch f := RiskFilter(strings.ToLower(strings.TrimSpace(raw))); f {
	case "", FilterAll:
		return FilterAll, nil
	case FilterHigh, FilterMedium, FilterLow:
		return f, nil
	default:
		return "", fmt.Errorf("unknown risk filter %q", raw)
	}
}

// Matches reports whether a student at level passes the filter.
func (f RiskFilter) Matches(level RiskLevel) bool {
	if f == FilterAll || f == "" {
		return true
	}
	return strings.EqualFold(string(f), string(level))
}
