package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/asaidimu/go-listquery/core/schema"
	"github.com/spf13/cobra"
)

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Validate the resource catalog and print what each resource exposes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			catalog, err := loadCatalog(cfg.Catalog)
			if err != nil {
				return err
			}
			printCatalog(cmd.OutOrStdout(), catalog)
			return nil
		},
	}
}

func printCatalog(out io.Writer, catalog *schema.Catalog) {
	for i := range catalog.Resources {
		def := &catalog.Resources[i]
		fmt.Fprintf(out, "%s (id: %s, %s)\n", def.Name, def.Identifier(), def.IdentifierFormat())
		for _, f := range def.FieldsFor(true) {
			scope := "public"
			if _, public := def.Fields.Lookup(f.Name); !public {
				scope = "admin"
			}
			ops := make([]string, 0, len(f.Operators))
			for _, op := range f.Operators {
				ops = append(ops, string(op))
			}
			if len(ops) == 0 {
				ops = append(ops, string(schema.OperatorEq))
			}
			fmt.Fprintf(out, "  filter  %-12s %-10s %-6s %s\n", f.Name, f.Type, scope, strings.Join(ops, ","))
		}
		if len(def.SearchFields) > 0 {
			fmt.Fprintf(out, "  search  %s\n", strings.Join(def.SearchFields, ", "))
		}
		fmt.Fprintf(out, "  sort    %s\n", strings.Join(def.SortFieldsFor(true), ", "))
	}
}
