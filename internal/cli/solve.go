package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/katalvlaran/hamgraph/costs"
	"github.com/katalvlaran/hamgraph/degree"
	"github.com/katalvlaran/hamgraph/gen"
	"github.com/katalvlaran/hamgraph/gvar"
	"github.com/katalvlaran/hamgraph/metrics"
	"github.com/katalvlaran/hamgraph/relax"
	"github.com/katalvlaran/hamgraph/search"
	"github.com/katalvlaran/hamgraph/strategy"
	"github.com/katalvlaran/hamgraph/subtour"
	"github.com/katalvlaran/hamgraph/trail"
)

var errOracleDirected = errors.New("relaxation modes and --optimize bounds need an undirected instance")

// solveOpts holds the flags that are not part of Config.
type solveOpts struct {
	config  string // TOML file
	svg     string // output path of the rendered tour
	metrics bool   // dump Prometheus metrics after the run
}

func (c *CLI) solveCommand() *cobra.Command {
	var (
		opts solveOpts
		cfg  = DefaultConfig()
	)
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Generate an instance and search a Hamiltonian cycle",
		Long: `Generate a random Hamiltonian graph (or a king's graph with --king) and search it
with graph-variable branch-and-bound. With --optimize, Euclidean costs are drawn from the
same seed and the cheapest tour is searched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			final := cfg
			if opts.config != "" {
				fileCfg, err := LoadConfig(opts.config)
				if err != nil {
					return err
				}
				final = overlay(fileCfg, cfg, cmd.Flags())
			}
			r, err := final.resolve()
			if err != nil {
				return err
			}
			return c.runSolve(cmd.Context(), r, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.config, "config", "", "TOML configuration file (flags override it)")
	f.StringVar(&opts.svg, "svg", "", "write the solved tour as SVG to this path")
	f.BoolVar(&opts.metrics, "metrics", false, "print Prometheus metrics after the run")

	f.IntVar(&cfg.Instance.Nodes, "nodes", cfg.Instance.Nodes, "number of nodes of the random instance")
	f.IntVar(&cfg.Instance.Neighbors, "neighbors", cfg.Instance.Neighbors, "extra random arcs per node")
	f.Int64Var(&cfg.Instance.Seed, "seed", cfg.Instance.Seed, "generator seed (0 = default)")
	f.IntVar(&cfg.Instance.King, "king", cfg.Instance.King, "use the king's graph of a KxK board")
	f.BoolVar(&cfg.Instance.Directed, "directed", cfg.Instance.Directed, "generate a directed instance")

	f.StringVar(&cfg.Strategy.Mode, "mode", cfg.Strategy.Mode, "arc-selection mode (see 'hamgraph modes')")
	f.StringVar(&cfg.Strategy.Operator, "operator", cfg.Strategy.Operator, "branching operator: enforce or remove")
	f.BoolVar(&cfg.Strategy.Incremental, "incremental", cfg.Strategy.Incremental, "prefer arcs leaving the last branched node")
	f.BoolVar(&cfg.Strategy.Constructive, "constructive", cfg.Strategy.Constructive, "extend the path from --start (needs --incremental)")
	f.IntVar(&cfg.Strategy.Start, "start", cfg.Strategy.Start, "start node of the constructive path and of the printed tour")

	f.BoolVar(&cfg.Search.Optimize, "optimize", cfg.Search.Optimize, "search the cheapest tour under Euclidean costs")
	f.IntVar(&cfg.Search.NodeLimit, "node-limit", cfg.Search.NodeLimit, "stop after this many search nodes (0 = unlimited)")
	f.StringVar(&cfg.Search.TimeLimit, "time-limit", cfg.Search.TimeLimit, "soft time budget, e.g. 10s (empty = unlimited)")
	return cmd
}

// overlay copies every explicitly set flag from flagCfg onto fileCfg.
func overlay(fileCfg, flagCfg Config, fs *pflag.FlagSet) Config {
	out := fileCfg
	fs.Visit(func(fl *pflag.Flag) {
		switch fl.Name {
		case "nodes":
			out.Instance.Nodes = flagCfg.Instance.Nodes
		case "neighbors":
			out.Instance.Neighbors = flagCfg.Instance.Neighbors
		case "seed":
			out.Instance.Seed = flagCfg.Instance.Seed
		case "king":
			out.Instance.King = flagCfg.Instance.King
		case "directed":
			out.Instance.Directed = flagCfg.Instance.Directed
		case "mode":
			out.Strategy.Mode = flagCfg.Strategy.Mode
		case "operator":
			out.Strategy.Operator = flagCfg.Strategy.Operator
		case "incremental":
			out.Strategy.Incremental = flagCfg.Strategy.Incremental
		case "constructive":
			out.Strategy.Constructive = flagCfg.Strategy.Constructive
		case "start":
			out.Strategy.Start = flagCfg.Strategy.Start
		case "optimize":
			out.Search.Optimize = flagCfg.Search.Optimize
		case "node-limit":
			out.Search.NodeLimit = flagCfg.Search.NodeLimit
		case "time-limit":
			out.Search.TimeLimit = flagCfg.Search.TimeLimit
		}
	})
	return out
}

func (c *CLI) runSolve(ctx context.Context, r resolved, opts solveOpts) error {
	log := c.Logger.WithField("run", uuid.NewString())

	in, err := instance(r.Instance)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"nodes": in.N,
		"arcs":  len(in.Arcs),
		"kind":  in.Kind.String(),
	}).Info("instance generated")

	g, err := in.Domain(trail.New())
	if err != nil {
		return err
	}
	filter, err := degree.New(g)
	if err != nil {
		return err
	}
	if _, err = subtour.New(g); err != nil {
		return err
	}

	var (
		sopts = []strategy.Option{
			strategy.WithMode(r.mode),
			strategy.WithOperator(r.operator),
			strategy.WithIncremental(r.Strategy.Incremental),
			strategy.WithSeed(r.Instance.Seed),
		}
		qopts = []search.Option{
			search.WithLogger(log),
			search.WithPropagators(filter),
			search.WithStart(r.Strategy.Start),
			search.WithNodeLimit(r.Search.NodeLimit),
			search.WithTimeLimit(r.timeLimit),
			search.WithOptimize(r.Search.Optimize),
		}
		m costs.Matrix
	)
	if r.Strategy.Constructive {
		sopts = append(sopts, strategy.WithConstructive(r.Strategy.Start))
	}
	if r.Search.Optimize || r.mode.NeedsCosts() || r.mode.NeedsOracle() {
		if m, err = gen.EuclideanCosts(in.N, r.Instance.Seed); err != nil {
			return err
		}
		sopts = append(sopts, strategy.WithCosts(m))
		qopts = append(qopts, search.WithCosts(m))
	}
	if r.mode.NeedsOracle() || (r.Search.Optimize && in.Kind == gvar.Undirected) {
		if in.Kind == gvar.Directed {
			return fmt.Errorf("%w: mode %s", errOracleDirected, r.mode)
		}
		ot, err := relax.NewOneTree(m, r.Strategy.Start, relax.DefaultOneTreeConfig())
		if err != nil {
			return err
		}
		sopts = append(sopts, strategy.WithOracle(ot))
		qopts = append(qopts, search.WithOracle(ot))
	}

	var reg *prometheus.Registry
	if opts.metrics {
		reg = prometheus.NewRegistry()
		rec, err := metrics.NewRecorder(reg)
		if err != nil {
			return err
		}
		qopts = append(qopts, search.WithHooks(rec))
	}

	st, err := strategy.New(g, sopts...)
	if err != nil {
		return err
	}
	s, err := search.New(g, st, qopts...)
	if err != nil {
		return err
	}

	res, solveErr := s.Solve(ctx)
	printResult(c.out, res, !m.IsZero())

	if opts.svg != "" && res.Tour != nil {
		if err = writeSVG(ctx, opts.svg, in, res.Tour); err != nil {
			return err
		}
		log.WithField("path", opts.svg).Info("tour rendered")
	}
	if reg != nil {
		if err = metrics.WriteText(c.out, reg); err != nil {
			return err
		}
	}
	return solveErr
}

func instance(ic InstanceConfig) (gen.Instance, error) {
	if ic.King > 0 {
		return gen.KingTour(ic.King)
	}
	kind := gvar.Undirected
	if ic.Directed {
		kind = gvar.Directed
	}
	return gen.RandomHamiltonian(ic.Nodes, ic.Neighbors, kind, ic.Seed)
}

func printResult(w io.Writer, res search.Result, withCost bool) {
	fmt.Fprintf(w, "status:    %s\n", res.Status)
	fmt.Fprintf(w, "nodes:     %d\n", res.Nodes)
	fmt.Fprintf(w, "fails:     %d\n", res.Fails)
	fmt.Fprintf(w, "solutions: %d\n", res.Solutions)
	if res.Tour == nil {
		return
	}
	if withCost {
		fmt.Fprintf(w, "cost:      %g\n", res.Cost)
	}
	parts := make([]string, len(res.Tour))
	for i, v := range res.Tour {
		parts[i] = fmt.Sprint(v)
	}
	fmt.Fprintf(w, "tour:      %s\n", strings.Join(parts, " "))
}

func writeSVG(ctx context.Context, path string, in gen.Instance, tour []int) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	svg, err := RenderSVG(ctx, ToDOT(in, tour))
	if err != nil {
		return err
	}
	if err = os.WriteFile(path, svg, 0o644); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

func (c *CLI) modesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "modes",
		Short: "List arc-selection modes",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, m := range strategy.Modes() {
				var needs []string
				if m.NeedsCosts() {
					needs = append(needs, "costs")
				}
				if m.NeedsOracle() {
					needs = append(needs, "relaxation")
				}
				if len(needs) == 0 {
					fmt.Fprintln(c.out, m)
					continue
				}
				fmt.Fprintf(c.out, "%s (%s)\n", m, strings.Join(needs, ", "))
			}
		},
	}
}
