package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nexusctl/internal/render"
	"nexusctl/internal/telemetry"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var noPrices bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll telemetry, health and prices on a schedule until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			return runWatch(cmd.Context(), a, !noPrices)
		},
	}

	cmd.Flags().BoolVar(&noPrices, "no-prices", false, "Skip the market price poll")
	return cmd
}

func runWatch(ctx context.Context, a *app, withPrices bool) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, meter, cleanup, err := telemetry.InitTelemetry(ctx)
	if err != nil {
		return err
	}
	defer cleanup()
	a.api.SetMeter(meter)

	c := cron.New()

	_, err = c.AddFunc(fmt.Sprintf("@every %ds", a.cfg.Watch.MetricsSeconds), func() {
		pollCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		m, err := a.api.Metrics(pollCtx)
		if err != nil {
			a.logger.Warn("metrics poll failed", "error", err)
			return
		}
		line := fmt.Sprintf("[%s] cpu %.0f%%  ram %.0f%%",
			time.Now().Format("15:04:05"), m.CPU.UsagePercent, m.Memory.Percent)
		if m.GPU.Available {
			line += fmt.Sprintf("  gpu %.0f%%  vram %.0f%%", m.GPU.UsagePercent, m.GPU.VramPercent)
		}
		fmt.Println(line)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule metrics poll: %w", err)
	}

	_, err = c.AddFunc(fmt.Sprintf("@every %ds", a.cfg.Watch.HealthSeconds), func() {
		pollCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		h, err := a.api.Health(pollCtx)
		if err != nil {
			a.logger.Warn("health poll failed", "error", err)
			return
		}
		degraded := 0
		for _, status := range h.Services {
			if status != "online" && status != "healthy" {
				degraded++
			}
		}
		if degraded > 0 {
			fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05"),
				render.WarnStyle.Render(fmt.Sprintf("%d service(s) degraded", degraded)))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule health poll: %w", err)
	}

	if withPrices {
		svc, err := a.marketService()
		if err != nil {
			return err
		}
		_, err = c.AddFunc(fmt.Sprintf("@every %ds", a.cfg.Watch.PricesSeconds), func() {
			pollCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			defer cancel()
			p, err := svc.Prices(pollCtx)
			if err != nil {
				a.logger.Warn("price poll failed", "error", err)
				return
			}
			fmt.Printf("[%s] btc $%.0f  eth $%.0f  sol $%.2f\n",
				time.Now().Format("15:04:05"), p.Bitcoin.USD, p.Ethereum.USD, p.Solana.USD)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule price poll: %w", err)
		}
	}

	a.logger.Info("watch started",
		"metrics_every", a.cfg.Watch.MetricsSeconds,
		"health_every", a.cfg.Watch.HealthSeconds,
		"prices", withPrices)
	c.Start()
	defer c.Stop()

	fmt.Println(render.DimStyle.Render("watching, press Ctrl-C to stop"))
	<-ctx.Done()
	fmt.Println()
	return nil
}
