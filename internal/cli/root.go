package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/ayo6706/payment-notification/internal/app"
	"github.com/ayo6706/payment-notification/internal/domain"
	"github.com/ayo6706/payment-notification/internal/gateway"
	"github.com/ayo6706/payment-notification/internal/service"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format  string // "json" | "text"
	Timeout time.Duration
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// BatchHandler reconciles one raw notification batch.
type BatchHandler interface {
	Handle(ctx context.Context, body []byte) (*service.Ack, []domain.Outcome, error)
}

// Runtime is what a command needs from the wired application.
type Runtime struct {
	Notifications      BatchHandler
	Provisioner        gateway.Provisioner
	InteractionTypeKey string
	Close              func()
}

// RuntimeFactory builds the runtime against the configured platform.
type RuntimeFactory func(ctx context.Context) (*Runtime, error)

// NewRootCommand creates the operator CLI backed by the environment configuration.
func NewRootCommand() *cobra.Command {
	return newRootCommand(platformRuntime)
}

func newRootCommand(factory RuntimeFactory) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "notification-cli",
		Short: "Operate the payment notification reconciler",
		Long:  "Replay provider notification batches against commerce platform payments and manage platform prerequisites.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.Timeout <= 0 {
				return fmt.Errorf("timeout must be positive")
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 2*time.Minute, "overall deadline for the command")

	cmd.AddCommand(NewReconcileCommand(opts, factory))
	cmd.AddCommand(NewProvisionCommand(opts, factory))

	return cmd
}

func platformRuntime(ctx context.Context) (*Runtime, error) {
	cfg, logger, err := app.Setup()
	if err != nil {
		return nil, err
	}
	components, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &Runtime{
		Notifications:      components.Notifications,
		Provisioner:        components.Provisioner,
		InteractionTypeKey: cfg.InteractionTypeKey,
		Close: func() {
			components.Close()
			_ = logger.Sync()
		},
	}, nil
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
