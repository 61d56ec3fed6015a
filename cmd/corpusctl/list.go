package main

import (
	"context"
	"fmt"

	"sales-assistant-be/internal/repository/specification"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	listCategory string
	listLimit    int
	listOffset   int
)

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVar(&listCategory, "category", "", "only records in this category")
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "page size")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "records to skip")
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Page through the corpus stored in Postgres",
	RunE: func(cmd *cobra.Command, args []string) error {
		repoFactory, err := openRepoFactory(loadConfig())
		if err != nil {
			return err
		}

		ctx := context.Background()
		repo := repoFactory.NewUnitOfWork(ctx).QuestionRepository()

		var filters []specification.Specification
		if listCategory != "" {
			filters = append(filters, specification.ByCategory{Category: listCategory})
		}

		total, err := repo.Count(ctx, filters...)
		if err != nil {
			return err
		}

		page := append(filters,
			specification.OrderBy{Field: "category"},
			specification.Pagination{Limit: listLimit, Offset: listOffset},
		)
		records, err := repo.FindAll(ctx, page...)
		if err != nil {
			return err
		}

		for _, r := range records {
			color.Cyan("%s  %s", r.Id, r.Category)
			for _, q := range r.Questions {
				fmt.Printf("  - %s (%d answers)\n", q.Text, len(q.Answers))
			}
		}
		fmt.Printf("\nshowing %d of %d\n", len(records), total)
		return nil
	},
}
