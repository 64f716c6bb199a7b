package cmd

import (
	"fmt"

	"github.com/q-controller/catcaption/src/pkg/gateway"
	"github.com/spf13/cobra"
)

var openapiCmd = &cobra.Command{
	Use:    "openapi",
	Short:  "Produces OpenAPI specifications for the gateway service",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		specs, specsErr := gateway.GenerateOpenAPISpecs()
		if specsErr != nil {
			return fmt.Errorf("failed to generate OpenAPI specs: %w", specsErr)
		}

		fmt.Fprintln(cmd.OutOrStdout(), specs)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(openapiCmd)
}
