package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/qsarflow/internal/infrastructure/cache"
	"github.com/turtacn/qsarflow/internal/infrastructure/monitoring/logging"
)

// NewCacheCmd creates the "cache" command group for snapshot-store
// maintenance.
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Maintain the result-cache store",
	}
	cmd.AddCommand(newCachePruneCmd())
	return cmd
}

func newCachePruneCmd() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune [cache-db]",
		Short: "Remove cached snapshots older than the retention window",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			path := cliCtx.Config.Cache.Path
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return fmt.Errorf("no cache path: pass one or set cache.path in the configuration")
			}

			store, err := cache.Open(path)
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Prune(olderThan)
			if err != nil {
				return err
			}
			cliCtx.Logger.Info("cache pruned",
				logging.String("path", path),
				logging.Int("removed", int(removed)))

			return printJSON(cmd, map[string]interface{}{
				"path":    path,
				"removed": removed,
			})
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour,
		"remove snapshots created longer ago than this")
	return cmd
}
