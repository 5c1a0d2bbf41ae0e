package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ayo6706/payment-notification/internal/domain"
	"github.com/ayo6706/payment-notification/internal/gateway"
	"github.com/ayo6706/payment-notification/internal/service"
	"github.com/spf13/cobra"
)

// ReconcileOptions holds flags for the reconcile command.
type ReconcileOptions struct {
	File   string
	DryRun bool
	Seed   string
}

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand(rootOpts *RootOptions, factory RuntimeFactory) *cobra.Command {
	opts := &ReconcileOptions{}

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile a notification batch read from a file",
		Long: `Reconcile a provider notification batch exactly as the webhook would.

With --dry-run the batch is applied to in-memory payments loaded from --seed
instead of the commerce platform, and the resulting payments are printed.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(cmd, rootOpts, opts, factory)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "path to the notification batch JSON")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "apply to in-memory payments instead of the platform")
	cmd.Flags().StringVar(&opts.Seed, "seed", "", "JSON array of payments to load for --dry-run")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

type reconcileReport struct {
	NotificationResponse string           `json:"notificationResponse"`
	Outcomes             []domain.Outcome `json:"outcomes"`
	Payments             []domain.Payment `json:"payments,omitempty"`
}

func runReconcile(cmd *cobra.Command, rootOpts *RootOptions, opts *ReconcileOptions, factory RuntimeFactory) error {
	body, err := os.ReadFile(opts.File)
	if err != nil {
		return fmt.Errorf("read batch: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), rootOpts.Timeout)
	defer cancel()

	var (
		runtime *Runtime
		memory  *gateway.MemoryGateway
		seeded  []string
	)
	if opts.DryRun {
		memory, seeded, err = seededGateway(opts.Seed)
		if err != nil {
			return err
		}
		reconciler := service.NewReconciler(memory, service.ReconcilerConfig{})
		runtime = &Runtime{
			Notifications: service.NewNotificationService(reconciler, &gateway.MemoryProvisioner{}),
			Close:         func() {},
		}
	} else {
		if opts.Seed != "" {
			return fmt.Errorf("--seed requires --dry-run")
		}
		runtime, err = factory(ctx)
		if err != nil {
			return err
		}
	}
	defer runtime.Close()

	ack, outcomes, err := runtime.Notifications.Handle(ctx, body)
	if err != nil {
		return fmt.Errorf("reconcile batch: %w", err)
	}

	report := reconcileReport{NotificationResponse: ack.NotificationResponse, Outcomes: outcomes}
	for _, ref := range seeded {
		if p, ok := memory.Payment(ref); ok {
			report.Payments = append(report.Payments, p)
		}
	}

	if rootOpts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), report)
	}
	return writeReconcileText(cmd.OutOrStdout(), report)
}

func seededGateway(path string) (*gateway.MemoryGateway, []string, error) {
	gw := gateway.NewMemoryGateway()
	if path == "" {
		return gw, nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read seed: %w", err)
	}
	var payments []domain.Payment
	if err := json.Unmarshal(raw, &payments); err != nil {
		return nil, nil, fmt.Errorf("decode seed: %w", err)
	}
	refs := make([]string, 0, len(payments))
	for _, p := range payments {
		if p.Key == "" {
			return nil, nil, fmt.Errorf("seed payment %q has no key", p.ID)
		}
		gw.Seed(p)
		refs = append(refs, p.Key)
	}
	return gw, refs, nil
}
