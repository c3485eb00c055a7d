package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-authflow/internal/config"
	"github.com/goliatone/go-authflow/pkg/backend"
	"github.com/goliatone/go-authflow/pkg/engine"
	"github.com/goliatone/go-authflow/pkg/metrics"
	"github.com/goliatone/go-authflow/pkg/model"
	"github.com/goliatone/go-authflow/pkg/notify"
	"github.com/goliatone/go-authflow/pkg/prompt"
)

const demoUsername = "demo"

func newRunCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [flow|/route]",
		Short: "Walk through a flow interactively",
		Long: `Runs a flow against the simulated backend. The argument is a flow id or a
route path such as /reset-password; without it the flow is chosen from a
list. Issued verification codes are written to the log.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			driver := promptDriver
			if driver == nil {
				driver = prompt.NewSurveyDriver(cmd.OutOrStdout())
			}

			flow, err := a.pickFlow(ctx, driver, args)
			if err != nil {
				return err
			}
			return a.run(ctx, cmd.OutOrStdout(), driver, flow)
		},
	}

	d := config.Default()
	f := cmd.Flags()
	f.Int("cooldown", d.CooldownSeconds, "seconds before another code can be requested")
	f.String("fixed-code", "", "issue this 6 digit code instead of a random one")
	f.Bool("metrics", false, "print Prometheus counters when the flow ends")
	f.Int("max-attempts", d.MaxAttempts, "failed submissions allowed per step (0 for unlimited)")
	f.Duration("complete-delay", d.CompletionDelay, "delay before the completion callback fires")
	return cmd
}

func (a *app) pickFlow(ctx context.Context, driver prompt.PromptDriver, args []string) (model.FlowDefinition, error) {
	if len(args) == 0 {
		return prompt.ChooseFlow(ctx, driver, a.store, a.localizer)
	}
	target := strings.TrimSpace(args[0])
	if strings.HasPrefix(target, "/") {
		flow, ok := a.store.Resolve(target)
		if !ok {
			return model.FlowDefinition{}, fmt.Errorf("no flow for route %s", target)
		}
		return flow, nil
	}
	return a.store.MustFlow(target)
}

func (a *app) newBackend() (*backend.Simulated, error) {
	b := a.cfg.Backend
	sim := backend.New(
		backend.WithLogger(a.logger.Named("backend")),
		backend.WithDelays(b.SendDelay, b.VerifyDelay, b.SubmitDelay),
		backend.WithDeactivateDelay(b.DeactivateDelay),
		backend.WithCodeTTL(b.CodeTTL),
		backend.WithFixedCode(b.FixedCode),
	)
	if b.DemoPhone != "" {
		account, err := sim.Seed(demoUsername, b.DemoPhone, b.DemoPassword)
		if err != nil {
			return nil, fmt.Errorf("seed demo account: %w", err)
		}
		a.logger.Info("demo account seeded", zap.String("phone", account.Phone), zap.String("account", account.ID))
	}
	return sim, nil
}

func (a *app) run(ctx context.Context, out io.Writer, driver prompt.PromptDriver, flow model.FlowDefinition) error {
	sim, err := a.newBackend()
	if err != nil {
		return err
	}

	done := make(chan struct{})
	options := []engine.Option{
		engine.WithLogger(a.logger),
		engine.WithLocalizer(a.localizer),
		engine.WithCooldown(a.cfg.CooldownSeconds),
		engine.WithCompletionDelay(a.cfg.CompletionDelay),
		engine.WithOnComplete(func() { close(done) }),
		engine.WithNotifier(notify.Multi(
			prompt.Notifier(ctx, driver, prompt.DefaultTheme),
			notify.Log(a.logger.Named("notify")),
		)),
	}

	var reg *prometheus.Registry
	if a.cfg.Metrics.Enabled {
		reg = prometheus.NewRegistry()
		options = append(options, engine.WithObserver(metrics.NewCollector(reg)))
	}

	collab := engine.Collaborators{
		Sender:        sim,
		Verifier:      sim,
		Registration:  sim,
		PasswordReset: sim,
		Auth:          sim,
	}
	eng, err := engine.New(flow, collab, options...)
	if err != nil {
		return err
	}
	defer eng.Close()

	runner := prompt.NewRunner(eng,
		prompt.WithPromptDriver(driver),
		prompt.WithLocalizer(a.localizer),
		prompt.WithLogger(a.logger.Named("prompt")),
		prompt.WithMaxAttempts(a.cfg.MaxAttempts),
	)
	runErr := runner.Run(ctx)
	if runErr == nil {
		select {
		case <-done:
		case <-ctx.Done():
			runErr = ctx.Err()
		}
	}

	if reg != nil {
		if err := writeMetrics(out, reg); err != nil {
			a.logger.Warn("gather metrics", zap.Error(err))
		}
	}

	if errors.Is(runErr, prompt.ErrAborted) {
		a.logger.Info("flow aborted", zap.String("flow", flow.ID))
		return nil
	}
	return runErr
}

// writeMetrics prints every non-zero counter sample as name{labels} value.
func writeMetrics(out io.Writer, reg prometheus.Gatherer) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			value := m.GetCounter().GetValue()
			if value == 0 {
				continue
			}
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			lines = append(lines, fmt.Sprintf("%s{%s} %g", mf.GetName(), strings.Join(labels, ","), value))
		}
	}
	sort.Strings(lines)
	for _, line := range lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}
