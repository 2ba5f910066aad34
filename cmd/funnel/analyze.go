package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/funnel/internal/cli"
	"github.com/aretw0/funnel/pkg/adapters/kafka"
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [submission-id]",
	Short: "Analyze the text answers of submissions",
	Long: `Annotates text answers with sentiment, keywords and a summary from the generative model.
With a submission id, that submission is analyzed once. Without one, submissions are
consumed from the Kafka topic (kafka.brokers) until interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := openStack(cmd, cli.WithGenerator())
		if err != nil {
			return err
		}
		defer stack.Close()

		enricher, err := stack.Enricher()
		if err != nil {
			return err
		}

		if len(args) == 1 {
			n, err := enricher.EnrichByID(cmd.Context(), args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Annotated %d answers of %s\n", n, args[0])
			return err
		}

		if len(cfg.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka brokers: %w", cli.ErrNotConfigured)
		}
		consumer, err := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, stack.Logger)
		if err != nil {
			return err
		}
		defer consumer.Close()

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		stack.Logger.Info("Consuming submissions", "topic", cfg.Kafka.Topic, "group", cfg.Kafka.GroupID)
		if err := consumer.Run(sigCtx, enricher.Handle); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		stack.Logger.Info("Consumer stopped", "signal", sigCtx.Signal())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
