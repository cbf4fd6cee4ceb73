// Command glassfire clusters a point file into local Gaussian models and
// writes the best model for every input point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "glassfire",
		Short: "Local Gaussian clustering of point sets",
		Long: `glassfire seeds one centroid per occupied grid cell, moves the centroids
to the local means of the data, merges colliding centroids and fits a
Gaussian to the neighbourhood of every survivor.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "glassfire %s\n", version)
		},
	})
	rootCmd.AddCommand(newClusterCmd())

	return rootCmd
}
