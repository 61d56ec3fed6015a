package main

import (
	"context"
	"fmt"
	"strings"

	"sales-assistant-be/pkg/matching"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var matchSplit bool

func init() {
	rootCmd.AddCommand(matchCmd)
	matchCmd.Flags().BoolVar(&matchSplit, "split", false, "split the input into questions first")
}

var matchCmd = &cobra.Command{
	Use:   "match [query]",
	Short: "Run a query through every match tier",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		matcher, err := newMatcher(loadConfig())
		if err != nil {
			return err
		}

		query := strings.Join(args, " ")
		questions := []string{query}
		if matchSplit {
			questions = matching.Split(query)
		}

		for _, q := range questions {
			color.Cyan("> %s", q)
			fmt.Printf("  normalized: %s\n", matching.Normalize(q))

			res, err := matcher.ForceMatch(context.Background(), q)
			if err != nil {
				color.Red("  error: %v", err)
				continue
			}
			if res == nil {
				color.Yellow("  no match")
				continue
			}
			color.Green("  [%s %.2f] %s (%s)", res.Tier, res.Similarity, res.MatchedQuestion, res.Category)
			for _, a := range res.Answers {
				fmt.Printf("    Response %s: %s\n", a.Label, a.Text)
			}
		}
		return nil
	},
}
