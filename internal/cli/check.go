package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/jonwraymond/httpkit/client"
	"github.com/jonwraymond/httpkit/health"
)

var (
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorDim    = lipgloss.Color("240")
)

// checkCommand creates the check command.
func (c *CLI) checkCommand() *cobra.Command {
	var (
		slow     time.Duration
		deadline time.Duration
		parallel int
	)

	cmd := &cobra.Command{
		Use:   "check URL [URL...]",
		Short: "Probe endpoints and report their health",
		Long: `Send one GET to each URL, retrying transport failures like any other
request, and report each endpoint as healthy, degraded or unhealthy.

A 4xx status or a response slower than --slow is degraded. A 5xx status or
an unreachable endpoint is unhealthy, and makes the command fail.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hc, shutdown, err := c.newClient(cmd)
			if err != nil {
				return err
			}
			defer shutdown()

			probe := func(ctx context.Context, target string) error {
				return hc.Do(ctx, client.Request{URL: target}).Err
			}

			agg := health.NewAggregator(health.AggregatorConfig{
				Timeout:     deadline,
				Concurrency: parallel,
			})
			for _, target := range args {
				agg.Register(target, health.NewEndpointChecker(target, probe, health.WithSlowThreshold(slow)))
			}

			reports := agg.CheckAll(cmd.Context())
			for _, r := range reports {
				if r.Result.Error != nil {
					c.Logger.Debug("check failed", "target", r.Name, "err", r.Result.Error)
				}
			}
			if err := writeReports(cmd.OutOrStdout(), reports); err != nil {
				return err
			}

			if health.Overall(reports) == health.StatusUnhealthy {
				failed := 0
				for _, r := range reports {
					if r.Result.Status == health.StatusUnhealthy {
						failed++
					}
				}
				return fmt.Errorf("%w: %d of %d endpoints unhealthy", health.ErrCheckFailed, failed, len(reports))
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&slow, "slow", 0, "mark responses slower than this as degraded (0 = never)")
	cmd.Flags().DurationVar(&deadline, "deadline", health.DefaultCheckTimeout, "overall time limit for all checks")
	cmd.Flags().IntVarP(&parallel, "parallel", "p", defaultParallel, "maximum concurrent checks")
	return cmd
}

// writeReports prints one line per report: status, target, duration, message.
func writeReports(w io.Writer, reports []health.Report) error {
	r := lipgloss.NewRenderer(w)
	styles := map[health.Status]lipgloss.Style{
		health.StatusHealthy:   r.NewStyle().Foreground(colorGreen),
		health.StatusDegraded:  r.NewStyle().Foreground(colorYellow),
		health.StatusUnhealthy: r.NewStyle().Foreground(colorRed).Bold(true),
	}
	dim := r.NewStyle().Foreground(colorDim)

	for _, rep := range reports {
		status := styles[rep.Result.Status].Width(10).Render(rep.Result.Status.String())
		took := dim.Render(rep.Result.Duration.Round(time.Millisecond).String())
		if _, err := fmt.Fprintf(w, "%s %s %s %s\n", status, rep.Name, took, rep.Result.Message); err != nil {
			return err
		}
	}
	return nil
}
