package matching

import (
	"context"
	"fmt"
	"os"
	"strings"

	"sales-assistant-be/pkg/store"

	"gopkg.in/yaml.v3"
)

// CalibrationCase is one labeled query. An empty Expected means the query
// must not match anything.
type CalibrationCase struct {
	Query    string `yaml:"query"`
	Expected string `yaml:"expected"`
}

type CalibrationOutcome struct {
	Case    CalibrationCase
	Result  *store.MatchResult
	Correct bool
	Err     error
}

type TierStats struct {
	Hits    int
	Correct int
}

type CalibrationReport struct {
	Outcomes       []CalibrationOutcome
	Tiers          map[string]*TierStats
	Correct        int
	Missed         int // expected a match, got none
	FalsePositives int // expected none, got one
	Wrong          int // matched a different question
}

func (r *CalibrationReport) Accuracy() float64 {
	if len(r.Outcomes) == 0 {
		return 0
	}
	return float64(r.Correct) / float64(len(r.Outcomes))
}

type calibrationFile struct {
	Cases []CalibrationCase `yaml:"cases"`
}

func LoadCalibrationFile(path string) ([]CalibrationCase, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read calibration file: %w", err)
	}
	var f calibrationFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse calibration file: %w", err)
	}
	return f.Cases, nil
}

// Calibrate runs every case through the matcher and tallies accuracy per tier
func Calibrate(ctx context.Context, m *Matcher, cases []CalibrationCase) *CalibrationReport {
	report := &CalibrationReport{Tiers: make(map[string]*TierStats)}

	for _, c := range cases {
		res, err := m.Match(ctx, c.Query)
		outcome := CalibrationOutcome{Case: c, Result: res, Err: err}

		switch {
		case err != nil:
			report.Missed++
		case res == nil && c.Expected == "":
			outcome.Correct = true
		case res == nil:
			report.Missed++
		case c.Expected == "":
			report.FalsePositives++
		case strings.EqualFold(strings.TrimSpace(res.MatchedQuestion), strings.TrimSpace(c.Expected)):
			outcome.Correct = true
		default:
			report.Wrong++
		}

		if res != nil {
			stats, ok := report.Tiers[res.Tier]
			if !ok {
				stats = &TierStats{}
				report.Tiers[res.Tier] = stats
			}
			stats.Hits++
			if outcome.Correct {
				stats.Correct++
			}
		}
		if outcome.Correct {
			report.Correct++
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}
	return report
}
