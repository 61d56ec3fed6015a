package main

import (
	"fmt"

	"sales-assistant-be/internal/config"
	"sales-assistant-be/internal/pkg/logger"
	"sales-assistant-be/internal/repository/unitofwork"
	"sales-assistant-be/pkg/database"
	"sales-assistant-be/pkg/matching"

	"github.com/spf13/cobra"
)

var (
	corpusSource string
	corpusFile   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "corpusctl",
	Short: "Manage and tune the question corpus",
	Long: `corpusctl seeds the question corpus into Postgres, runs ad-hoc lookups
through the tiered matcher, and calibrates match thresholds against a labeled set.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&corpusSource, "source", "", "corpus source: postgres or file (default from CORPUS_SOURCE)")
	rootCmd.PersistentFlags().StringVar(&corpusFile, "file", "", "YAML corpus file (default from CORPUS_FILE)")
}

// loadConfig applies flag overrides on top of the environment
func loadConfig() *config.Config {
	cfg := config.Load()
	if corpusSource != "" {
		cfg.App.CorpusSource = corpusSource
	}
	if corpusFile != "" {
		cfg.App.CorpusFile = corpusFile
	}
	return cfg
}

func openRepoFactory(cfg *config.Config) (unitofwork.RepositoryFactory, error) {
	if cfg.Database.Connection == "" {
		return nil, fmt.Errorf("DB_CONNECTION_STRING is not set")
	}
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, database.PoolConfig{MaxOpenConns: 4})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return unitofwork.NewRepositoryFactory(db), nil
}

// newMatcher builds an uncached matcher over the configured corpus
func newMatcher(cfg *config.Config) (*matching.Matcher, error) {
	var corpus matching.Corpus
	if cfg.App.CorpusSource == "file" {
		records, err := matching.LoadCorpusFile(cfg.App.CorpusFile)
		if err != nil {
			return nil, err
		}
		corpus = matching.NewMemoryCorpus(records)
	} else {
		repoFactory, err := openRepoFactory(cfg)
		if err != nil {
			return nil, err
		}
		corpus = matching.NewRepositoryCorpus(repoFactory)
	}

	matchCfg := matching.DefaultConfig()
	matchCfg.Thresholds = matching.Thresholds{
		Trusted:         cfg.Matcher.TrustedThreshold,
		Partial:         cfg.Matcher.PartialThreshold,
		Relaxed:         cfg.Matcher.RelaxedThreshold,
		RelaxedMinWords: cfg.Matcher.RelaxedMinWords,
		Basic:           cfg.Matcher.BasicThreshold,
		BasicCategory:   cfg.Matcher.BasicCategory,
		EarlyExit:       cfg.Matcher.EarlyExit,
		Fuzzy:           cfg.Matcher.FuzzyThreshold,
		Fallback:        cfg.Matcher.FallbackCoverage,
	}

	return matching.NewMatcher(corpus, matching.NoCache(), nil, matchCfg, logger.NewNopLogger()), nil
}
