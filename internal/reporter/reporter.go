package reporter

import (
	"encoding/json"
	"fmt"
	"time"

	"controllerblocker/internal/config"
	"controllerblocker/internal/models"
	"controllerblocker/pkg/utils"
)

// History is the part of the repository reports are built from
type History interface {
	GetSummarySince(since time.Time) ([]models.BlockSummary, error)
	CountErrorsSince(since time.Time) (int64, error)
}

// Reporter handles report generation
type Reporter struct {
	config *config.Config
	repo   History
	now    func() time.Time
}

// New creates a new reporter
func New(cfg *config.Config, repo History) *Reporter {
	return &Reporter{
		config: cfg,
		repo:   repo,
		now:    time.Now,
	}
}

// GenerateReport generates a report for the specified period
func (r *Reporter) GenerateReport(periodType string) (*models.Report, error) {
	period, err := getPeriod(periodType, r.now())
	if err != nil {
		return nil, err
	}

	// SQL does the SUM and COUNT
	summaries, err := r.repo.GetSummarySince(period.Start)
	if err != nil {
		return nil, fmt.Errorf("failed to get block summary: %w", err)
	}

	var totalDiscarded int64
	var totalTicks int
	for i := range summaries {
		totalDiscarded += summaries[i].TotalDiscarded
		totalTicks += summaries[i].TickCount
	}

	if totalDiscarded > 0 {
		for i := range summaries {
			summaries[i].Percentage = (float64(summaries[i].TotalDiscarded) / float64(totalDiscarded)) * 100.0
		}
	}

	errorCount, err := r.repo.CountErrorsSince(period.Start)
	if err != nil {
		return nil, fmt.Errorf("failed to count errors: %w", err)
	}

	report := &models.Report{
		Period:         *period,
		Entries:        summaries,
		TotalDiscarded: totalDiscarded,
		TotalTicks:     totalTicks,
		Errors:         errorCount,
		GeneratedAt:    r.now(),
	}

	return report, nil
}

// Period returns the current day, week or month
func Period(periodType string) (*models.ReportPeriod, error) {
	return getPeriod(periodType, time.Now())
}

// getPeriod calculates the time range for the report
func getPeriod(periodType string, now time.Time) (*models.ReportPeriod, error) {
	var start, end time.Time

	switch periodType {
	case "day", "today":
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		end = start.AddDate(0, 0, 1)

	case "week":
		// Start of week (Monday)
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7 // Sunday = 7
		}
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -(weekday - 1))
		end = start.AddDate(0, 0, 7)

	case "month":
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end = start.AddDate(0, 1, 0)

	default:
		return nil, fmt.Errorf("invalid period type: %s (valid: day, week, month)", periodType)
	}

	return &models.ReportPeriod{
		Start: start,
		End:   end,
		Type:  periodType,
	}, nil
}

// FormatReportText formats the report as human-readable text
func (r *Reporter) FormatReportText(report *models.Report) string {
	output := fmt.Sprintf("Block Report - %s\n", report.Period.Type)
	output += fmt.Sprintf("Period: %s to %s\n",
		report.Period.Start.Format("2006-01-02 15:04"),
		report.Period.End.Format("2006-01-02 15:04"))
	output += fmt.Sprintf("Discarded: %d events over %d ticks\n", report.TotalDiscarded, report.TotalTicks)
	if report.Errors > 0 {
		output += fmt.Sprintf("Enumeration errors: %d\n", report.Errors)
	}
	output += "\n"

	if len(report.Entries) == 0 {
		output += "No input was blocked in this period.\n"
		return output
	}

	output += fmt.Sprintf("%-24s %-24s %10s %8s %9s\n", "Controller", "Program", "Discarded", "Ticks", "Percent")
	output += fmt.Sprintf("%s\n", "--------------------------------------------------------------------------------")

	for _, e := range report.Entries {
		output += fmt.Sprintf("%-24s %-24s %10d %8d %8.1f%%\n",
			utils.Truncate(e.Controller, 24),
			utils.Truncate(e.Program, 24),
			e.TotalDiscarded,
			e.TickCount,
			e.Percentage)
	}

	return output
}

// FormatReportJSON formats the report as JSON
func (r *Reporter) FormatReportJSON(report *models.Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}
