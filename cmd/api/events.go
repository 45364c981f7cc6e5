package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/incident-service/internal/mq"
)

func newEventsCmd() *cobra.Command {
	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect relayed report events",
	}

	var topic string
	tailCmd := &cobra.Command{
		Use:   "tail",
		Short: "Print report events from the configured broker until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			backend, err := mq.New(ctx, cfg.MQ)
			if err != nil {
				return err
			}
			if backend == nil {
				return errors.New("MQ_DRIVER is none; nothing to tail")
			}
			defer backend.Close() //nolint:errcheck

			if topic == "" {
				topic = cfg.MQ.Topic
			}
			logger.Info("tailing events", zap.String("driver", cfg.MQ.Driver), zap.String("topic", topic))

			out := cmd.OutOrStdout()
			err = backend.Subscribe(ctx, topic, func(_ context.Context, msg mq.Message) error {
				_, werr := fmt.Fprintf(out, "%s %s %s\n", msg.Attributes["event_type"], msg.ID, msg.Data)
				return werr
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	tailCmd.Flags().StringVar(&topic, "topic", "", "topic or queue to read (defaults to MQ_TOPIC)")
	eventsCmd.AddCommand(tailCmd)
	return eventsCmd
}
