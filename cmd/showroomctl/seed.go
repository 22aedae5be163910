package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/showroomdex/internal/repository/memory"
)

func newSeedCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file>",
		Short: "Load showrooms from a JSON or YAML file into the store",
		Long: `Reads a list of showrooms, recomputes their normalized fields and
writes them in one batch. Records without an id get a random UUID.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := memory.ReadFixtures(args[0])
			if err != nil {
				return err
			}
			assigned := 0
			for i := range items {
				if strings.TrimSpace(items[i].ID) == "" {
					items[i].ID = uuid.NewString()
					assigned++
				}
			}
			return c.withBackend(cmd.Context(), func(b *backend) error {
				if b.repo == nil {
					return errNeedsIndex
				}
				if err := b.repo.Put(cmd.Context(), items); err != nil {
					return fmt.Errorf("seed %s: %w", args[0], err)
				}
				c.logger.Info("seeded showrooms",
					zap.String("file", args[0]),
					zap.Int("count", len(items)),
					zap.Int("assigned_ids", assigned),
				)
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d showrooms (%d new ids)\n", len(items), assigned)
				return nil
			})
		},
	}
}
