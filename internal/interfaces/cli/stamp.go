package cli

import (
	"github.com/spf13/cobra"

	"github.com/turtacn/qsarflow/internal/config"
	"github.com/turtacn/qsarflow/internal/infrastructure/cache"
	"github.com/turtacn/qsarflow/internal/infrastructure/sdfile"
)

// NewStampCmd creates the "stamp" subcommand: print the parameter stamp (and
// input checksum, when a file is given) without running anything.  Useful for
// checking whether a planned run would hit the cache.
func NewStampCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stamp [input-file]",
		Short: "Print the parameter stamp for the current configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			out := map[string]interface{}{
				"stamp": cache.Stamp(*cliCtx.Config),
			}
			if len(args) == 1 {
				sum, err := cache.InputChecksum(args[0])
				if err != nil {
					return err
				}
				out["input"] = args[0]
				out["checksum"] = sum
				if cliCtx.Config.Input.Type == config.InputMolecule {
					n, err := sdfile.Count(args[0])
					if err != nil {
						return err
					}
					out["records"] = n
				}
			}
			return printJSON(cmd, out)
		},
	}
}
