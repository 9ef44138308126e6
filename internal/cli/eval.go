package cli

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilburn/gdlfiltering/pkg/costfn"
	"github.com/kilburn/gdlfiltering/pkg/observability"
	"github.com/kilburn/gdlfiltering/pkg/observability/promhooks"
	"github.com/kilburn/gdlfiltering/pkg/pipeline"
	"github.com/kilburn/gdlfiltering/pkg/problem"
)

// maxPrintedEntries bounds the marginal table printed to the terminal.
const maxPrintedEntries = 32

// evalOpts holds the eval command flags.
type evalOpts struct {
	query      []string
	evidence   map[string]int
	combine    string
	summarize  string
	normalize  string
	sparse     string
	noCache    bool
	refresh    bool
	output     string
	metricsOut string
}

// evalCommand creates the eval command.
func (c *CLI) evalCommand() *cobra.Command {
	var opts evalOpts

	cmd := &cobra.Command{
		Use:   "eval <problem>",
		Short: "Compute the marginal and optimum of a cost network",
		Long: `Eval loads a problem file (JSON or YAML), conditions it on evidence,
combines all factors, and summarizes onto the query variables.

Operators default to the [policy] section of the config file; flags override it.`,
		Example: `  gdlf eval network.yaml
  gdlf eval network.json --query x,y --evidence z=1
  gdlf eval network.yaml --summarize max -o marginal.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runEval(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.query, "query", "q", nil, "variables to keep (default: the problem's query)")
	cmd.Flags().StringToIntVarP(&opts.evidence, "evidence", "e", nil, "fix variables to states (name=state,...)")
	cmd.Flags().StringVar(&opts.combine, "combine", "", "combine operator: sum, product")
	cmd.Flags().StringVar(&opts.summarize, "summarize", "", "summarize operator: min, max, sum")
	cmd.Flags().StringVar(&opts.normalize, "normalize", "", "normalization: none, sum0, sum1")
	cmd.Flags().StringVar(&opts.sparse, "sparse", "", "sparse backing: map, sorted")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even when a cached result exists")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the marginal as a factor file (.json or .yaml)")
	cmd.Flags().StringVar(&opts.metricsOut, "metrics-out", "", "write Prometheus metrics for the run to a file")

	return cmd
}

// runEval executes the eval command.
func (c *CLI) runEval(cmd *cobra.Command, path string, opts evalOpts) error {
	ctx := cmd.Context()

	prob, err := problem.Load(path)
	if err != nil {
		return err
	}

	pipeOpts, err := c.pipelineOptions(opts)
	if err != nil {
		return err
	}

	var metrics *promhooks.Metrics
	if opts.metricsOut != "" {
		metrics = promhooks.New()
		metrics.Install()
		defer observability.Reset()
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	spinner := newSpinner(ctx, cmd.ErrOrStderr(), "Evaluating "+displayName(prob, path)+"...")
	spinner.Start()
	res, err := runner.Evaluate(ctx, prob, pipeOpts)
	spinner.Stop()
	if err != nil {
		return err
	}
	prog.done("Evaluated " + displayName(prob, path))

	printResult(res, pipeOpts.Policy)

	if opts.output != "" {
		if err := problem.Save(opts.output, problem.FromFunction("marginal", res.Marginal)); err != nil {
			return fmt.Errorf("write marginal: %w", err)
		}
		printFile(opts.output)
	}
	if metrics != nil {
		if err := writeMetrics(opts.metricsOut, metrics); err != nil {
			return err
		}
		printFile(opts.metricsOut)
	}
	return nil
}

// pipelineOptions merges the config file with the command flags.
func (c *CLI) pipelineOptions(opts evalOpts) (pipeline.Options, error) {
	cfg := *c.Config
	for dst, src := range map[*string]string{
		&cfg.Policy.Combine:   opts.combine,
		&cfg.Policy.Summarize: opts.summarize,
		&cfg.Policy.Normalize: opts.normalize,
		&cfg.Policy.Sparse:    opts.sparse,
	} {
		if src != "" {
			*dst = src
		}
	}

	policy, err := cfg.PolicyValue()
	if err != nil {
		return pipeline.Options{}, err
	}
	sparse, err := cfg.SparseRepresentation()
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Policy:   policy,
		Sparse:   sparse,
		Query:    opts.query,
		Evidence: opts.evidence,
		Refresh:  opts.refresh,
		TTL:      cfg.Cache.TTL.Duration,
		Logger:   c.Logger,
	}, nil
}

func writeMetrics(path string, m *promhooks.Metrics) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create metrics file: %w", err)
	}
	if err := m.WriteText(f); err != nil {
		f.Close()
		return fmt.Errorf("write metrics: %w", err)
	}
	return f.Close()
}

func displayName(p *problem.Problem, path string) string {
	if p.Name != "" {
		return p.Name
	}
	return path
}

// =============================================================================
// Result Output
// =============================================================================

func printResult(res *pipeline.Result, policy costfn.Policy) {
	s := res.Stats
	printStats(s.Factors, s.Variables, res.CacheHit)
	printKeyValue("policy", policy.String())
	printKeyValue("joint", fmt.Sprintf("%d entries, %s, %d bytes", s.JointSize, s.JointBacking, s.JointBytes))
	if s.ConditionedOut > 0 {
		printKeyValue("conditioned", fmt.Sprintf("%d factors fully fixed", s.ConditionedOut))
	}
	printNewline()

	printMarginal(res.Marginal)

	if res.Optimum != nil {
		printNewline()
		fmt.Println(StyleTitle.Render("Optimum"))
		for _, name := range slices.Sorted(maps.Keys(res.Optimum)) {
			printKeyValue(name, StyleNumber.Render(strconv.Itoa(res.Optimum[name])))
		}
		printKeyValue("cost", formatValue(res.OptimumCost))
	}
}

func printMarginal(fn *costfn.Function) {
	fmt.Println(StyleTitle.Render("Marginal"))
	if fn.Arity() == 0 {
		printKeyValue("constant", formatValue(fn.Value(0)))
		return
	}

	vars := fn.Variables()
	buf := costfn.NewAssignment(len(vars))
	shown := min(fn.Size(), maxPrintedEntries)
	parts := make([]string, len(vars))
	for i := range shown {
		fn.Mapping(i, buf)
		for j, v := range vars {
			parts[j] = v.Name() + "=" + strconv.Itoa(buf[v])
		}
		printKeyValue(strings.Join(parts, " "), formatValue(fn.Value(i)))
	}
	if shown < fn.Size() {
		printDetail("... %d more entries (use -o to write them all)", fn.Size()-shown)
	}
}

func formatValue(v float64) string {
	return StyleNumber.Render(strconv.FormatFloat(v, 'g', 6, 64))
}
