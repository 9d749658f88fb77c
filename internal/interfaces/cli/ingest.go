package cli

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/turtacn/qsarflow/internal/application/ingest"
	"github.com/turtacn/qsarflow/internal/infrastructure/cache"
	"github.com/turtacn/qsarflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/qsarflow/internal/infrastructure/monitoring/metrics"
)

// ingestOptions holds flags local to the ingest command.
type ingestOptions struct {
	outPath string
	workers int
	noCache bool
}

// NewIngestCmd creates the "ingest" subcommand: run the full pipeline on one
// input file and report the resulting dataset.
func NewIngestCmd() *cobra.Command {
	opts := &ingestOptions{}

	cmd := &cobra.Command{
		Use:   "ingest <input-file>",
		Short: "Ingest a structure or data file and generate the feature matrix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.outPath, "out", "o", "", "write the resulting matrix as TSV to this path")
	f.IntVarP(&opts.workers, "workers", "w", 0, "override worker count from configuration")
	f.BoolVar(&opts.noCache, "no-cache", false, "bypass the result cache for this run")

	return cmd
}

func runIngest(cmd *cobra.Command, input string, opts *ingestOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	cfg := *cliCtx.Config
	if opts.workers > 0 {
		cfg.Worker.NumCPUs = opts.workers
	}
	if opts.noCache {
		cfg.Cache.Enabled = false
	}

	var store ingest.SnapshotStore
	if cfg.Cache.Enabled {
		path := cfg.Cache.Path
		if path == "" {
			path = filepath.Join(filepath.Dir(input), "qsarflow_cache.db")
		}
		s, err := cache.Open(path)
		if err != nil {
			cliCtx.Logger.Warn("cache unavailable, continuing without it", logging.Err(err))
		} else {
			defer s.Close()
			store = s
		}
	}

	reg := prometheus.NewRegistry()
	p := ingest.NewPipeline(cfg, store, metrics.New(reg), cliCtx.Logger)
	ds, err := p.Run(cmd.Context(), input)
	if err != nil {
		return err
	}

	if opts.outPath != "" {
		if err := writeTSV(opts.outPath, ds); err != nil {
			return err
		}
		cliCtx.Logger.Info("matrix written", logging.String("path", opts.outPath))
	}

	return printJSON(cmd, map[string]interface{}{
		"input":     input,
		"objects":   ds.NumObjects(),
		"variables": ds.NumVars(),
		"skipped":   ds.Skipped,
		"stamp":     cache.Stamp(cfg),
		"cache_hit": counterValue(reg, "qsarflow_cache_hits_total") > 0,
	})
}

// counterValue sums one counter family gathered from reg.
func counterValue(reg *prometheus.Registry, name string) float64 {
	mfs, err := reg.Gather()
	if err != nil {
		return 0
	}
	total := 0.0
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

// writeTSV exports the dataset as a tab-separated table: annotations first,
// then one column per descriptor variable.  Missing activities render as
// empty cells.
func writeTSV(path string, ds *ingest.Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprint(w, "name\tactivity\texperimental")
	for _, v := range ds.VarNames {
		fmt.Fprintf(w, "\t%s", v)
	}
	fmt.Fprintln(w)

	for i := 0; i < ds.NumObjects(); i++ {
		act := ""
		if !math.IsNaN(ds.Activities[i]) {
			act = strconv.FormatFloat(ds.Activities[i], 'g', -1, 64)
		}
		fmt.Fprintf(w, "%s\t%s\t%s", ds.Names[i], act, ds.Experimental[i])
		for j := 0; j < ds.NumVars(); j++ {
			fmt.Fprintf(w, "\t%s", strconv.FormatFloat(ds.X.At(i, j), 'g', -1, 64))
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}
