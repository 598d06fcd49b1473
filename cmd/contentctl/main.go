// Package main is contentctl, the operator CLI of the content API. It
// exports collections to JSON files, imports them back, and hashes the
// bootstrap admin password.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"portfolio/internal/app"
	"portfolio/internal/auth"
	"portfolio/internal/config"
	"portfolio/internal/models"
	"portfolio/internal/transfer"
)

// storeOpener connects to the configured collections.
type storeOpener func(ctx context.Context) (*app.Stores, error)

func main() {
	slog.SetDefault(app.NewLogger(os.Stderr, "info", false))

	open := func(ctx context.Context) (*app.Stores, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		slog.SetDefault(app.NewLogger(os.Stderr, cfg.LogLevel, false))
		return app.OpenStores(ctx, cfg)
	}

	if err := newRootCmd(open, os.Stdout, os.Stdin).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(open storeOpener, out io.Writer, in io.Reader) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "contentctl",
		Short:        "Manage portfolio content collections",
		SilenceUsage: true,
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(os.Stderr)
	rootCmd.SetIn(in)

	rootCmd.AddCommand(newExportCmd(open), newImportCmd(open), newHashPasswordCmd())
	return rootCmd
}

func addCollectionFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("projects-only", false, "only process projects")
	cmd.Flags().Bool("blog-only", false, "only process blog posts")
	cmd.MarkFlagsMutuallyExclusive("projects-only", "blog-only")
}

// selectCollections applies --projects-only and --blog-only.
func selectCollections(cmd *cobra.Command, stores *app.Stores) []transfer.Collection {
	projectsOnly, _ := cmd.Flags().GetBool("projects-only")
	blogOnly, _ := cmd.Flags().GetBool("blog-only")

	var out []transfer.Collection
	for _, c := range stores.Collections() {
		if projectsOnly && c.Resource.Name != models.Projects.Name {
			continue
		}
		if blogOnly && c.Resource.Name != models.BlogPosts.Name {
			continue
		}
		out = append(out, c)
	}
	return out
}

func newExportCmd(open storeOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export collections to JSON files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("out")

			stores, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer stores.Close()

			for _, c := range selectCollections(cmd, stores) {
				path, n, err := transfer.ExportFile(cmd.Context(), c, dir)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported %d %s to %s\n", n, c.Resource.Name, path)
			}
			return nil
		},
	}
	cmd.Flags().String("out", "data", "directory to write the export files to")
	addCollectionFlags(cmd)
	return cmd
}

func newImportCmd(open storeOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import collections from JSON files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			force, _ := cmd.Flags().GetBool("force")

			stores, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer stores.Close()

			for _, c := range selectCollections(cmd, stores) {
				res, err := transfer.ImportFile(cmd.Context(), c, dir, transfer.ImportOptions{Force: force})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d %s (%d skipped)\n", res.Created, c.Resource.Name, res.Skipped)
			}
			return nil
		},
	}
	cmd.Flags().String("dir", "data", "directory holding the export files")
	cmd.Flags().Bool("force", false, "import into collections that already have records")
	addCollectionFlags(cmd)
	return cmd
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
		Long:  "Print a bcrypt hash for ADMIN_PASSWORD_HASH. The password is read from standard input when no argument is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(string(data), "\r\n")
			}
			if password == "" {
				return fmt.Errorf("password must not be empty")
			}

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
