// Package risk labels students by dropout risk and explains the label.
package risk

import (
	"fmt"
	"strings"

	"github.com/sihmvp/dropout-monitor/internal/model"
)

// Thresholds used by Classify and Insights.
const (
	HighAttendanceBelow   = 70.0
	HighScoreBelow        = 50.0
	MediumAttendanceBelow = 80.0
	MediumScoreBelow      = 60.0
	LowAttendanceReason   = 75.0
	LowScoreReason        = 50.0
)

const noAdvice = "No specific advice. The student's data looks good."

// Classify returns the risk label for one student.
func Classify(attendance, avgScore float64, fee model.FeeStatus) model.RiskLevel {
	switch {
	case attendance < HighAttendanceBelow && avgScore < HighScoreBelow:
		return model.RiskHigh
	case attendance < MediumAttendanceBelow || avgScore < MediumScoreBelow || fee == model.FeeOverdue:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

// Summarize classifies a stored record into a roster row.
func Summarize(r model.StudentRecord) model.StudentSummary {
	return model.StudentSummary{
		StudentID:            r.StudentID,
		AttendancePercentage: r.AttendancePercentage,
		AvgTestScore:         r.AvgTestScore,
		FeeStatus:            r.FeeStatus,
		RiskLevel:            Classify(r.AttendancePercentage, r.AvgTestScore, r.FeeStatus),
	}
}

// Insights lists the reasons behind a label and the matching advice.
func Insights(s model.StudentSummary) (reasons []string, advice string) {
	reasons = []string{}
	var b strings.Builder

	if s.AttendancePercentage < LowAttendanceReason {
		reasons = append(reasons, fmt.Sprintf("Low attendance (%s%%).", formatNumber(s.AttendancePercentage)))
		b.WriteString("Encourage regular class attendance. ")
	}
	if s.AvgTestScore < LowScoreReason {
		reasons = append(reasons, fmt.Sprintf("Low average test score (%s).", formatNumber(s.AvgTestScore)))
		b.WriteString("Suggest tutoring or extra practice. ")
	}
	if s.FeeStatus == model.FeeOverdue {
		reasons = append(reasons, "Overdue fee status.")
		b.WriteString("Consider financial counseling.")
	}

	advice = strings.TrimSpace(b.String())
	if advice == "" {
		advice = noAdvice
	}
	return reasons, advice
}

// Info builds the detail header for a summary.
func Info(s model.StudentSummary) model.StudentInfo {
	reasons, advice := Insights(s)
	return model.StudentInfo{StudentSummary: s, Reasons: reasons, Advice: advice}
}

// Counts tallies a roster by risk level. Every level is present in the result.
func Counts(roster []model.StudentSummary) map[model.RiskLevel]int {
	counts := map[model.RiskLevel]int{
		model.RiskHigh:   0,
		model.RiskMedium: 0,
		model.RiskLow:    0,
	}
	for _, s := range roster {
		counts[s.RiskLevel]++
	}
	return counts
}

// formatNumber prints whole values without a fraction and others to two places.
func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
