package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"chronosec/internal/catalog"
	"chronosec/internal/render"
	"chronosec/internal/timeline"
)

var (
	listFramework string
	listJSON      bool

	rulesCmd = &cobra.Command{
		Use:         "rules",
		Short:       "List a framework's rule table",
		Annotations: map[string]string{annotationQuiet: ""},
		RunE: func(cmd *cobra.Command, _ []string) error {
			rs := timeline.Rules(strings.ToLower(strings.TrimSpace(listFramework)))
			if listJSON {
				return printJSON(cmd, rs)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rule set: %s\n\n", rs.Framework)
			return render.RulesTable(rs).Write(cmd.OutOrStdout(), render.TerminalWidth(os.Stdout))
		},
	}

	catalogCmd = &cobra.Command{
		Use:         "catalog",
		Short:       "List known incident types and frameworks",
		Annotations: map[string]string{annotationQuiet: ""},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listJSON {
				return printJSON(cmd, map[string]any{
					"incidentTypes": catalog.IncidentTypes(),
					"frameworks":    catalog.Frameworks(),
				})
			}
			width := render.TerminalWidth(os.Stdout)
			fmt.Fprintln(cmd.OutOrStdout(), "Incident types:")
			if err := render.CatalogTable(catalog.IncidentTypes()).Write(cmd.OutOrStdout(), width); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "\nFrameworks:")
			return render.CatalogTable(catalog.Frameworks()).Write(cmd.OutOrStdout(), width)
		},
	}
)

func init() {
	rulesCmd.Flags().StringVarP(&listFramework, "framework", "f", "",
		"Framework whose table to list (default rule set when empty)")
	for _, c := range []*cobra.Command{rulesCmd, catalogCmd} {
		c.Flags().BoolVar(&listJSON, "json", false, "Print JSON instead of a table")
		rootCmd.AddCommand(c)
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := sonic.ConfigDefault.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
