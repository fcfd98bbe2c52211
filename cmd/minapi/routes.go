package main

import (
	"fmt"

	"github.com/artpar/minapi/bootstrap"
	"github.com/artpar/minapi/config"
	"github.com/artpar/minapi/domain/route"
	"github.com/artpar/minapi/pkg/formatter"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	routesOutput  string
	routesColumns []string
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the route table",
	Long: `Print every route the server would mount, in registration order, with
the filters composed into its chain (outermost first).

Examples:
  minapi routes
  minapi routes -o json
  minapi routes --columns method,template,filters`,
	RunE: runRoutes,
}

func init() {
	rootCmd.AddCommand(routesCmd)
	routesCmd.Flags().StringVarP(&routesOutput, "output", "o", "table", "output format: table, json or yaml")
	routesCmd.Flags().StringSliceVar(&routesColumns, "columns", nil, "columns to print")
}

func runRoutes(cmd *cobra.Command, args []string) error {
	f, err := formatter.Get(routesOutput)
	if err != nil {
		return err
	}

	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	stores := bootstrap.NewStores(nil, nil)
	reg, err := bootstrap.BuildRegistry(cfg, stores.Handlers(), zerolog.Nop())
	if err != nil {
		return fmt.Errorf("build routes: %w", err)
	}

	return f.FormatList(cmd.OutOrStdout(), routesDataset(reg.Routes()), formatter.FormatOptions{
		Columns: routesColumns,
	})
}

// routesDataset lists each route with its chain as "kind:name" entries.
func routesDataset(routes []*route.Route) formatter.Dataset {
	data := formatter.Dataset{
		Kind:    "routes",
		Columns: []string{"method", "template", "endpoint", "tags", "filters"},
		Rows:    make([]map[string]any, 0, len(routes)),
	}
	for _, r := range routes {
		filters := make([]string, 0, len(r.Filters))
		for _, f := range r.Filters {
			filters = append(filters, string(f.Kind)+":"+f.Name)
		}
		tags := r.Tags
		if tags == nil {
			tags = []string{}
		}
		data.Rows = append(data.Rows, map[string]any{
			"method":   r.Method,
			"template": r.Template.String(),
			"endpoint": r.Endpoint.Name,
			"tags":     tags,
			"filters":  filters,
		})
	}
	return data
}
