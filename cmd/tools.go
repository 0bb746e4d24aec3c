// File: cmd/tools.go
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/webpilot-ai/webpilot/internal/tools"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools advertised to the model.",
	Run: func(cmd *cobra.Command, args []string) {
		for _, schema := range tools.Schemas() {
			var params []string
			for _, p := range schema.Parameters {
				name := p.Name
				if !p.Required {
					name += "?"
				}
				params = append(params, fmt.Sprintf("%s %s", name, p.Type))
			}
			cmd.Println(fmt.Sprintf("%s(%s)", schema.Name, strings.Join(params, ", ")))
			cmd.Println("    " + schema.Description)
		}
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}
