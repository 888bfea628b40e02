package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lumahq/luma/internal/provider"
)

// ModelsCmd creates the models command, which prints the pricing catalog
// without starting the server.
func ModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List known models and pricing",
		Run: func(cmd *cobra.Command, args []string) {
			catalog := provider.NewCatalog(modelsPath())
			defer catalog.Close()

			fmt.Printf("%-24s %-12s %12s %12s\n", "MODEL", "PROVIDER", "IN $/1M", "OUT $/1M")
			for _, m := range catalog.Models() {
				in, out := 0.0, 0.0
				if m.Pricing != nil {
					in, out = m.Pricing.Input, m.Pricing.Output
				}
				fmt.Printf("%-24s %-12s %12.2f %12.2f\n", m.ID, m.Provider, in, out)
			}
		},
	}
}
