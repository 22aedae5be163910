package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	showroomrepo "github.com/kailas-cloud/showroomdex/internal/repository/showroom"
)

func newIndexCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the showroom search index",
	}
	cmd.AddCommand(newIndexEnsureCommand(c))
	cmd.AddCommand(newIndexDropCommand(c))
	cmd.AddCommand(newIndexStatusCommand(c))
	return cmd
}

func newIndexEnsureCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "ensure",
		Short: "Create the index if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withBackend(cmd.Context(), func(b *backend) error {
				if b.repo == nil {
					return errNeedsIndex
				}
				created, err := b.repo.EnsureIndex(cmd.Context())
				if err != nil {
					return err
				}
				name := b.repo.Keys().Index()
				c.logger.Info("index ensured", zap.String("index", name), zap.Bool("created", created))
				if created {
					fmt.Fprintf(cmd.OutOrStdout(), "index %s created\n", name)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "index %s already exists\n", name)
				}
				return nil
			})
		},
	}
}

func newIndexDropCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "drop",
		Short: "Drop the index, keeping stored showrooms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withBackend(cmd.Context(), func(b *backend) error {
				if b.repo == nil {
					return errNeedsIndex
				}
				if err := b.repo.DropIndex(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "index %s dropped\n", b.repo.Keys().Index())
				return nil
			})
		},
	}
}

func newIndexStatusCommand(c *cli) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether the index exists and has finished building",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withBackend(cmd.Context(), func(b *backend) error {
				if b.repo == nil {
					return errNeedsIndex
				}
				st, err := b.repo.IndexStatus(cmd.Context())
				if err != nil {
					return err
				}
				return printIndexStatus(cmd, st, output)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format (json|text)")
	return cmd
}

func printIndexStatus(cmd *cobra.Command, st showroomrepo.IndexStatus, format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return printJSON(cmd, st)
	case "", "text":
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Index: %s\n", st.Name)
		fmt.Fprintf(w, "Exists: %t\n", st.Exists)
		if st.Exists {
			fmt.Fprintf(w, "Ready: %t\n", st.Ready)
			fmt.Fprintf(w, "Documents: %d\n", st.NumDocs)
			fmt.Fprintf(w, "Indexed: %.0f%%\n", st.PercentIndexed*100)
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (expected json or text)", format)
	}
}
