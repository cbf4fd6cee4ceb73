package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/glassfire"
)

func newClusterCmd() *cobra.Command {
	def := DefaultConfig()

	clusterCmd := &cobra.Command{
		Use:   "cluster [points-file]",
		Short: "Cluster a point file and write the best model per point",
		Long: `Reads one point per line (whitespace or comma separated), clusters the
points at the given cell size and writes "index key score coordinates..."
for every point. Flags override values from --config.`,
		Args: cobra.ExactArgs(1),
		RunE: runCluster,
	}

	flags := clusterCmd.Flags()
	flags.StringP("config", "c", "", "YAML run configuration")
	flags.StringP("output", "o", "", "Prediction file (default stdout)")
	flags.Int("skip-columns", def.SkipColumns, "Leading fields to ignore on every line")
	flags.Float64("cell-size", def.CellSize, "Grid cell size (required unless set in --config)")
	flags.Int("minimal-count", def.MinimalCount, "Prune centroids with fewer points after warm-up")
	flags.Float64("ratio", def.RatioOfMinimumDiff, "Convergence ratio of the cell size")
	flags.String("neighborhood", def.Neighborhood, "Covariance neighbourhood: adaptive or fixed")
	flags.Float64("regularize", def.Regularize, "Ridge term added to every covariance when querying")
	flags.Int("nearest", def.NearestCount, "Candidate clusters per query (0 for the default)")
	flags.Int("workers", def.Workers, "Parallel workers for mean and covariance updates")
	flags.Int("max-iterations", def.MaxIterations, "Mean-shift iteration cap")
	flags.String("log-level", def.LogLevel, "Log level: debug, info, warn or error")

	return clusterCmd
}

func runCluster(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	outputPath, _ := cmd.Flags().GetString("output")

	cfg := DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = LoadConfig(configPath); err != nil {
			return err
		}
	}
	if err := cfg.applyFlags(cmd.Flags()); err != nil {
		return err
	}
	if cfg.CellSize == 0 {
		return errors.New("cell size is required")
	}

	engineOpts, err := cfg.engineOptions(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	runOpts, err := cfg.runOptions()
	if err != nil {
		return err
	}

	points, err := loadPoints(args[0], cfg.SkipColumns)
	if err != nil {
		return err
	}

	eng, err := glassfire.New[int](len(points[0]), engineOpts...)
	if err != nil {
		return err
	}
	metas := make([]int, len(points))
	for i := range metas {
		metas[i] = i
	}
	if err := eng.AppendFeatures(points, metas); err != nil {
		return fmt.Errorf("appending points: %w", err)
	}

	ss, err := eng.RunCluster(cmd.Context(), cfg.CellSize, runOpts...)
	if err != nil {
		return fmt.Errorf("clustering: %w", err)
	}

	stderr := cmd.ErrOrStderr()
	fmt.Fprintf(stderr, "%d points, %d clusters\n", len(points), ss.ClusterCount())
	for _, c := range ss.Clusters() {
		fmt.Fprintf(stderr, "  %s mean=%v count=%d degenerate=%t\n", c.Key, c.Mean, c.Count, c.Degenerate)
	}

	write := func(w io.Writer) error {
		return writePredictions(w, ss, points, cfg.Regularize, cfg.NearestCount)
	}
	if outputPath == "" {
		return write(cmd.OutOrStdout())
	}
	return createOutput(outputPath, write)
}

// createOutput creates path and fills it with write. Close errors are
// returned like write errors.
func createOutput(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	if err := write(f); err != nil {
		return errors.Join(err, f.Close())
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}
	return nil
}

func loadPoints(path string, skip int) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening points: %w", err)
	}
	defer f.Close()

	points, err := readPoints(f, skip)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("reading %s: %w", path, glassfire.ErrEmptyFeatureSet)
	}
	return points, nil
}
