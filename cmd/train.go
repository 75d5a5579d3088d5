package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/review-audit/internal/pipeline"
)

var (
	trainStrategy string
	trainSeed     int64
	trainTrees    int
	trainOutput   string
	trainSave     bool
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a classifier on the labeled corpus",
	Long:  "Fits the feature transform on labeled reviews, rebalances classes, trains the bagged random-tree ensemble, and writes the model bundle to a file and/or the store.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if trainStrategy != "" {
			cfg.Resample.Strategy = trainStrategy
		}
		if cmd.Flags().Changed("seed") {
			cfg.Resample.Seed = trainSeed
			cfg.Forest.Seed = trainSeed
		}
		if trainTrees > 0 {
			cfg.Forest.Trees = trainTrees
		}
		if trainOutput == "" && !trainSave {
			return eris.New("nothing to do: pass --output and/or --save")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		p := pipeline.New(cfg, st)
		bundle, err := p.Train(ctx)
		if err != nil {
			return err
		}

		if trainOutput != "" {
			if err := bundle.SaveFile(trainOutput); err != nil {
				return err
			}
		}
		if trainSave {
			payload, err := bundle.Encode()
			if err != nil {
				return err
			}
			if err := st.SaveBundle(ctx, bundle.ID, payload); err != nil {
				return err
			}
		}

		zap.L().Info("training complete",
			zap.String("bundle_id", bundle.ID),
			zap.String("strategy", cfg.Resample.Strategy),
			zap.Int("trees", cfg.Forest.Trees),
			zap.Int("features", bundle.Transform.Width()),
			zap.String("output", trainOutput),
			zap.Bool("saved", trainSave),
		)
		return nil
	},
}

func init() {
	trainCmd.Flags().StringVar(&trainStrategy, "strategy", "", "rebalance strategy: oversample or downsample (default: config)")
	trainCmd.Flags().Int64Var(&trainSeed, "seed", 1, "random seed for resampling and tree training")
	trainCmd.Flags().IntVar(&trainTrees, "trees", 0, "number of trees (default: config)")
	trainCmd.Flags().StringVar(&trainOutput, "output", "", "write the model bundle to this path")
	trainCmd.Flags().BoolVar(&trainSave, "save", false, "persist the model bundle to the store")
	rootCmd.AddCommand(trainCmd)
}
