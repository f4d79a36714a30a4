package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	neo4j "github.com/neo4jrest/neo4j.go"
)

func (a *app) cypherCmd() *cobra.Command {
	var params []string

	cmd := &cobra.Command{
		Use:   "cypher QUERY...",
		Short: "Run one or more Cypher queries",
		Long: `Run Cypher queries. Several queries run concurrently, bounded by
max_conns, and their results are printed in argument order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			p, err := parseParams(params)
			if err != nil {
				return err
			}

			results := make([]any, len(args))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(a.maxConns())
			for i, q := range args {
				i, q := i, q
				g.Go(func() error {
					res, err := a.client.Cypher(ctx, neo4j.Shorthand(q, p))
					if err != nil {
						return fmt.Errorf("query %d: %w", i+1, err)
					}
					results[i] = res
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			if len(results) == 1 {
				return render(cmd.OutOrStdout(), a.flags.output, results[0])
			}
			return render(cmd.OutOrStdout(), a.flags.output, results)
		}),
	}
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "query parameter as key=value; JSON values are decoded")
	return cmd
}

func (a *app) commitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "commit STATEMENT...",
		Short: "Commit statements in a single transaction",
		Args:  cobra.MinimumNArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			statements := make([]any, len(args))
			for i, s := range args {
				statements[i] = s
			}
			res, err := a.client.TransactionCommit(cmd.Context(), statements)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), a.flags.output, res)
		}),
	}
}

func (a *app) indexesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "indexes",
		Short: "List schema indexes",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			res, err := a.client.Indexes(cmd.Context())
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), a.flags.output, res)
		}),
	}
}

func (a *app) constraintsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "constraints",
		Short: "List schema constraints",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			res, err := a.client.Constraints(cmd.Context())
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), a.flags.output, res)
		}),
	}
}

func (a *app) passwordCmd() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "password NEW",
		Short: "Change a user's password",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			var opts []neo4j.CallOption
			if username != "" {
				opts = append(opts, neo4j.WithUsername(username))
			}
			if _, err := a.client.UserPassword(cmd.Context(), args[0], opts...); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "password changed")
			return err
		}),
	}
	cmd.Flags().StringVar(&username, "username", "", "user to update (default neo4j)")
	return cmd
}

func (a *app) dataCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "data",
		Short: "Fetch the database root",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			res, err := a.client.Data(cmd.Context())
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), a.flags.output, res)
		}),
	}
}

// parseParams reads key=value pairs. Values that parse as JSON keep their
// JSON type, anything else is a string.
func parseParams(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid parameter %q, want key=value", p)
		}
		var decoded any
		if err := json.Unmarshal([]byte(v), &decoded); err == nil {
			out[k] = decoded
		} else {
			out[k] = v
		}
	}
	return out, nil
}
