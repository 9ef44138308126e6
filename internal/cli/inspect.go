package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilburn/gdlfiltering/pkg/costfn"
	"github.com/kilburn/gdlfiltering/pkg/msgpass"
	"github.com/kilburn/gdlfiltering/pkg/pipeline"
	"github.com/kilburn/gdlfiltering/pkg/problem"
)

// inspectOpts holds the inspect command flags.
type inspectOpts struct {
	mode      string
	maxRounds int
	dot       string
	svg       string
}

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var opts inspectOpts

	cmd := &cobra.Command{
		Use:   "inspect <problem>",
		Short: "Show factor statistics and the variable interaction graph",
		Long: `Inspect builds every factor of a problem file and reports its size,
backing and nogood ratio. It then builds the interaction graph (one node per
variable, an edge per pair of variables sharing a factor), runs it once
through the message-passing runtime, and optionally writes it as DOT or SVG.`,
		Example: `  gdlf inspect network.yaml
  gdlf inspect network.yaml --svg network.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.mode, "mode", "", "runtime mode: graph, tree-up, tree-down (default: config)")
	cmd.Flags().IntVar(&opts.maxRounds, "max-rounds", 0, "round cap for graph mode (default: config)")
	cmd.Flags().StringVar(&opts.dot, "dot", "", "write the interaction graph as DOT")
	cmd.Flags().StringVar(&opts.svg, "svg", "", "render the interaction graph to SVG")

	return cmd
}

// runInspect executes the inspect command.
func (c *CLI) runInspect(ctx context.Context, path string, opts inspectOpts) error {
	cfg := *c.Config
	if opts.mode != "" {
		cfg.Runtime.Mode = opts.mode
	}
	if opts.maxRounds > 0 {
		cfg.Runtime.MaxRounds = opts.maxRounds
	}
	mode, err := cfg.Mode()
	if err != nil {
		return err
	}
	policy, err := cfg.PolicyValue()
	if err != nil {
		return err
	}
	factoryOpts, err := cfg.FactoryOptions()
	if err != nil {
		return err
	}

	prob, err := problem.Load(path)
	if err != nil {
		return err
	}
	in, err := prob.Build(costfn.NewFactory(policy, factoryOpts...))
	if err != nil {
		return err
	}

	fmt.Println(StyleTitle.Render(displayName(prob, path)))
	printKeyValue("variables", StyleNumber.Render(fmt.Sprint(len(in.Variables))))
	printKeyValue("policy", policy.String())
	printNewline()
	for i, fn := range in.Factors {
		printFactor(in.Names[i], fn)
	}
	printNewline()

	g, err := pipeline.InteractionGraph(in, mode, cfg.RuntimeOptions(c.Logger)...)
	if err != nil {
		return err
	}
	res, err := runGraph(ctx, g, cfg.Runtime.MaxRounds)
	if err != nil {
		return err
	}

	fmt.Println(StyleTitle.Render("Interaction graph"))
	printKeyValue("nodes", StyleNumber.Render(fmt.Sprint(len(g.Nodes()))))
	printKeyValue("edges", StyleNumber.Render(fmt.Sprint(len(g.Edges()))))
	printKeyValue("tree", fmt.Sprint(g.IsTree()))
	printKeyValue("mode", res.Mode)
	printKeyValue("rounds", fmt.Sprintf("%d (converged: %t)", res.Iterations, res.Converged))
	printKeyValue("load", fmt.Sprintf("%.3f", res.LoadFactor()))

	if opts.dot != "" {
		if err := os.WriteFile(opts.dot, []byte(g.ToDOT()), 0o644); err != nil {
			return fmt.Errorf("write DOT: %w", err)
		}
		printFile(opts.dot)
	}
	if opts.svg != "" {
		svg, err := g.RenderSVG(ctx)
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.svg, svg, 0o644); err != nil {
			return fmt.Errorf("write SVG: %w", err)
		}
		printFile(opts.svg)
	}
	return nil
}

// runGraph runs tree modes with a single pass when the graph is a tree and
// falls back to bounded rounds otherwise.
func runGraph(ctx context.Context, g *pipeline.Graph, maxRounds int) (*msgpass.Results, error) {
	if g.Mode() != msgpass.ModeGraph && len(g.Nodes()) > 0 {
		if g.IsTree() {
			return g.RunTree(ctx, g.Nodes()[0])
		}
		printWarning("graph has cycles; running %s mode by rounds", g.Mode())
	}
	return g.Run(ctx, maxRounds)
}

func printFactor(name string, fn *costfn.Function) {
	names := make([]string, 0, fn.Arity())
	for _, v := range fn.Variables() {
		names = append(names, v.Name())
	}
	printKeyValue(name, fmt.Sprintf("(%s) %s", strings.Join(names, ","), StyleDim.Render(fmt.Sprintf(
		"%d entries · %s · %.0f%% nogood · %d bytes",
		fn.Size(), fn.Representation(), 100*fn.NogoodRatio(), fn.ByteSize()))))
}
