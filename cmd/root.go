package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/review-audit/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "review-audit",
	Short: "Weak-label fake review detection pipeline",
	Long:  "Imports review datasets, derives heuristic fake/genuine labels, trains a bagged random-tree classifier over TF-IDF features, and evaluates it with stratified cross-validation.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
