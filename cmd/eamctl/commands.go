package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"github.com/easyasset/eam-backend/internal/app"
	"github.com/easyasset/eam-backend/internal/config"
	"github.com/easyasset/eam-backend/internal/domain"
	"github.com/easyasset/eam-backend/internal/usecase/allocation"
	"github.com/easyasset/eam-backend/pkg/logger"
)

var commands = []subcommands.Command{
	&overviewCmd{},
	&rebalanceCmd{},
	&reportCmd{},
	&syncCmd{},
}

// ownerFlag selects the portfolio; it may be omitted when only one owner is configured
type ownerFlag struct {
	owner string
}

func (o *ownerFlag) register(f *flag.FlagSet) {
	f.StringVar(&o.owner, "owner", "", "Owner whose portfolio to use (defaults to the only configured owner)")
}

func (o *ownerFlag) resolve(cfg *config.Config) (string, error) {
	if o.owner != "" {
		return o.owner, nil
	}
	owners := cfg.Owners()
	if len(owners) != 1 {
		return "", fmt.Errorf("-owner is required, configured owners: %s", strings.Join(owners, ", "))
	}
	return owners[0], nil
}

// open loads the configuration and wires the application with a quiet logger
func open(ctx context.Context) (*config.Config, *app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(logger.Config{Level: "warn", Pretty: true, Output: os.Stderr})
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, a, nil
}

func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err == nil {
		if out, err := r.Render(md); err == nil {
			fmt.Print(out)
			return
		}
	}
	fmt.Print(md)
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}

type overviewCmd struct {
	ownerFlag
}

func (*overviewCmd) Name() string     { return "overview" }
func (*overviewCmd) Synopsis() string { return "display the tier allocation against targets" }
func (*overviewCmd) Usage() string {
	return `eamctl overview [-owner <owner>]

  Values the active holdings and compares each tier with its target.
`
}

func (c *overviewCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *overviewCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	cfg, a, err := open(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	owner, err := c.resolve(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	res, err := a.Portfolio.Overview(ctx, owner)
	if err != nil {
		return fail(err)
	}
	printMarkdown(overviewMarkdown(owner, res))
	return subcommands.ExitSuccess
}

func overviewMarkdown(owner string, res *allocation.AllocationResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Allocation of %s\n\n", owner)
	fmt.Fprintf(&b, "Total value **%s** across %d holdings\n\n", res.TotalValue.StringFixed(2), res.HoldingsCount)
	b.WriteString("| Tier | Target % | Actual % | Drift | Value |\n")
	b.WriteString("|---|---:|---:|---:|---:|\n")
	for _, a := range res.Allocations {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			a.Tier, a.TargetPct.StringFixed(2), a.ActualPct.StringFixed(2), a.DriftPct.StringFixed(2), a.MarketValue.StringFixed(2))
	}
	return b.String()
}

type rebalanceCmd struct {
	ownerFlag
}

func (*rebalanceCmd) Name() string     { return "rebalance" }
func (*rebalanceCmd) Synopsis() string { return "list tiers that drifted beyond the threshold" }
func (*rebalanceCmd) Usage() string {
	return `eamctl rebalance [-owner <owner>]

  Suggests how much to move into or out of each drifting tier.
`
}

func (c *rebalanceCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *rebalanceCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	cfg, a, err := open(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	owner, err := c.resolve(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	res, err := a.Portfolio.RebalanceSuggestions(ctx, owner)
	if err != nil {
		return fail(err)
	}
	printMarkdown(rebalanceMarkdown(res))
	return subcommands.ExitSuccess
}

func rebalanceMarkdown(res *allocation.RebalanceResult) string {
	if !res.NeedsRebalance {
		return "All tiers are within the threshold, no rebalance needed.\n"
	}
	var b strings.Builder
	b.WriteString("# Rebalance\n\n")
	for _, s := range res.Suggestions {
		verb := "Reduce"
		if s.Action == domain.RebalanceIncrease {
			verb = "Increase"
		}
		fmt.Fprintf(&b, "- %s **%s** by %s (drift %s%%)\n", verb, s.Tier, s.Amount.StringFixed(2), s.DriftPct.StringFixed(2))
	}
	return b.String()
}

type reportCmd struct {
	ownerFlag
	generate bool
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "display the latest daily report" }
func (*reportCmd) Usage() string {
	return `eamctl report [-owner <owner>] [-new]

  Renders the most recent daily report. With -new a fresh report is generated first.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.BoolVar(&c.generate, "new", false, "Generate a new daily report before displaying it")
}

func (c *reportCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	cfg, a, err := open(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	owner, err := c.resolve(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	var rep *domain.Report
	if c.generate {
		rep, err = a.Reports.Daily(ctx, owner)
	} else {
		rep, err = a.Reports.Latest(ctx, owner, domain.ReportKindDaily)
	}
	if errors.Is(err, domain.ErrNotFound) {
		fmt.Fprintln(os.Stderr, "No report yet, run with -new to generate one.")
		return subcommands.ExitFailure
	}
	if err != nil {
		return fail(err)
	}

	printMarkdown(rep.Content)
	return subcommands.ExitSuccess
}

type syncCmd struct{}

func (*syncCmd) Name() string     { return "sync" }
func (*syncCmd) Synopsis() string { return "fetch today's quotes for every active holding" }
func (*syncCmd) Usage() string {
	return `eamctl sync

  Fetches and stores the latest quote of every instrument held by any owner.
`
}

func (*syncCmd) SetFlags(f *flag.FlagSet) {}

func (*syncCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	_, a, err := open(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	owners, err := a.HoldingRepo.ListOwners(ctx)
	if err != nil {
		return fail(err)
	}
	summary, err := a.Quotes.SyncActiveHoldings(ctx, owners)
	if err != nil {
		return fail(err)
	}

	fmt.Printf("Synced %d, skipped %d, failed %d\n", summary.Synced, summary.Skipped, summary.Failed)
	if summary.Failed > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
