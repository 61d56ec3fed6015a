package main

import (
	"context"
	"fmt"
	"log"

	"sales-assistant-be/internal/pkg/logger"
	"sales-assistant-be/internal/service"
	"sales-assistant-be/pkg/matching"
	pktNats "sales-assistant-be/pkg/nats"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var seedReplace bool

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().BoolVar(&seedReplace, "replace", false, "delete the existing corpus before seeding")
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the YAML corpus into Postgres in one transaction",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		records, err := matching.LoadCorpusFile(cfg.App.CorpusFile)
		if err != nil {
			return err
		}

		repoFactory, err := openRepoFactory(cfg)
		if err != nil {
			return err
		}

		opts := service.CorpusServiceOptions{RepoFactory: repoFactory}
		if cfg.App.NatsURL != "" {
			nc, err := pktNats.Connect(cfg.App.NatsURL)
			if err != nil {
				log.Printf("[WARN] %v, running instances will keep stale caches", err)
			} else if pub, err := pktNats.NewPublisher(nc); err == nil {
				defer pub.Close()
				opts.EventPublisher = pub
			}
		}

		corpusService := service.NewCorpusService(opts, logger.NewNopLogger())
		n, err := corpusService.Seed(context.Background(), records, seedReplace)
		if err != nil {
			color.Red("Seed failed: %v", err)
			return err
		}

		color.Green("Seeded %d records from %s", n, cfg.App.CorpusFile)
		if seedReplace {
			fmt.Println("Previous corpus replaced")
		}
		return nil
	},
}
