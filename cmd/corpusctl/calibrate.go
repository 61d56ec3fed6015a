package main

import (
	"context"
	"fmt"
	"sort"

	"sales-assistant-be/pkg/matching"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	calibrationFile  string
	calibrateVerbose bool
)

func init() {
	rootCmd.AddCommand(calibrateCmd)
	calibrateCmd.Flags().StringVar(&calibrationFile, "cases", "data/calibration.yaml", "labeled queries (cases: [{query, expected}])")
	calibrateCmd.Flags().BoolVarP(&calibrateVerbose, "verbose", "v", false, "print every case")
}

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Measure matcher accuracy per tier against labeled queries",
	Long: `calibrate runs each labeled query through the matcher with the thresholds
from the environment (MATCH_*) and reports accuracy overall and per tier.
Re-run with different MATCH_* values to compare thresholds.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cases, err := matching.LoadCalibrationFile(calibrationFile)
		if err != nil {
			return err
		}

		matcher, err := newMatcher(loadConfig())
		if err != nil {
			return err
		}

		report := matching.Calibrate(context.Background(), matcher, cases)

		if calibrateVerbose {
			for _, o := range report.Outcomes {
				got := "<none>"
				if o.Result != nil {
					got = fmt.Sprintf("%s [%s %.2f]", o.Result.MatchedQuestion, o.Result.Tier, o.Result.Similarity)
				}
				if o.Correct {
					color.Green("PASS %q -> %s", o.Case.Query, got)
				} else {
					color.Red("FAIL %q -> %s (expected %q)", o.Case.Query, got, o.Case.Expected)
				}
			}
			fmt.Println()
		}

		tiers := make([]string, 0, len(report.Tiers))
		for tier := range report.Tiers {
			tiers = append(tiers, tier)
		}
		sort.Strings(tiers)

		color.Cyan("Per tier")
		for _, tier := range tiers {
			s := report.Tiers[tier]
			fmt.Printf("  %-9s hits=%-4d correct=%-4d precision=%.2f\n", tier, s.Hits, s.Correct, float64(s.Correct)/float64(s.Hits))
		}

		fmt.Printf("\nmissed=%d false_positives=%d wrong=%d\n", report.Missed, report.FalsePositives, report.Wrong)
		summary := color.GreenString
		if report.Accuracy() < 0.8 {
			summary = color.YellowString
		}
		fmt.Println(summary("accuracy %.1f%% (%d/%d)", report.Accuracy()*100, report.Correct, len(report.Outcomes)))
		return nil
	},
}
