package commands

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/zorm/pool"
)

// NewPingCommand creates the ping command, which health-checks every
// configured pool.
func NewPingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Health-check every configured connection pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := loadViper()
			if err != nil {
				return err
			}
			registry, err := pool.LoadRegistry(v, resolveDriver(v), secretKey())
			if err != nil {
				return err
			}
			defer registry.Close()

			failed := 0
			for _, p := range registry.All() {
				if err := p.CheckHealth(context.Background()); err != nil {
					color.Red("✗ %s (%s): %v", p.Name(), p.Config().Database, err)
					failed++
					continue
				}
				color.Green("✓ %s (%s)", p.Name(), p.Config().Database)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d pools unhealthy", failed, len(registry.All()))
			}
			return nil
		},
	}
}
