package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/alicomputer/retail-pos/internal/identity"
	"github.com/spf13/cobra"
)

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "Print the capability table",
	Long:  `Print the capabilities granted to each role by the configured capability table.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		table, err := initTable(cfg.Roles)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ROLE\tCAPABILITIES")
		for _, role := range identity.Roles() {
			fmt.Fprintf(w, "%s\t%s\n", role, strings.Join(table.Capabilities(role), ", "))
		}
		return w.Flush()
	},
}
