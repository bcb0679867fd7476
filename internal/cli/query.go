package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/asaidimu/go-listquery/core/query"
	"github.com/asaidimu/go-listquery/core/schema"
	"github.com/spf13/cobra"
)

func newQueryCmd() *cobra.Command {
	var admin bool

	cmd := &cobra.Command{
		Use:   "query <resource> [param=value ...]",
		Short: "Run one list query and print the page as JSON",
		Long: `Run one list query against a catalog resource and print the result.

Parameters use the same names as the HTTP endpoint, for example:

  listquery query products q=shirt price[min]=10 category=shirts,hats sort=cheapest pageSize=5

A bare "key=a&key=b" string is also accepted.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			params, err := parseParams(args[1:])
			if err != nil {
				return err
			}

			b, err := openBackend(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer b.Close()

			access := query.AccessPublic
			if admin {
				access = query.AccessAdmin
			}
			return runQuery(cmd.Context(), cmd.OutOrStdout(), b, args[0], params, access, queryOptions(cfg, nil))
		},
	}
	cmd.Flags().BoolVar(&admin, "admin", false, "query with admin access")
	return cmd
}

func runQuery(ctx context.Context, out io.Writer, b *backend, resource string, params query.Params, access query.Access, opts []query.Option) error {
	def, ok := b.catalog.Resource(resource)
	if !ok {
		return fmt.Errorf("unknown resource '%s'", resource)
	}

	result, err := query.NewResourceQuery[schema.Document](def, b.stores[def.Name], params, access, opts...).Execute(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// parseParams reads key=value arguments. Repeated keys accumulate.
func parseParams(args []string) (query.Params, error) {
	params := query.Params{}
	for _, arg := range args {
		values, err := url.ParseQuery(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid parameter %q: %w", arg, err)
		}
		if len(values) == 0 && strings.TrimSpace(arg) != "" {
			return nil, fmt.Errorf("invalid parameter %q: expected key=value", arg)
		}
		for key, vs := range values {
			params[key] = append(params[key], vs...)
		}
	}
	return params, nil
}
