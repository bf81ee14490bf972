package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/zorm/pool"
)

// NewPoolsCommand creates the pools command, which prints the configured
// pool declarations without connecting.
func NewPoolsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pools",
		Short: "List the configured connection pools",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := loadViper()
			if err != nil {
				return err
			}
			driver := resolveDriver(v)
			configs, err := pool.LoadConfigs(v, driver, secretKey())
			if err != nil {
				return err
			}
			bold := color.New(color.Bold)
			for _, c := range configs {
				bold.Printf("%s (%s)\n", c.Name, driver)
				fmt.Printf("  database:      %s\n", c.Database)
				if c.Namespace != "" {
					fmt.Printf("  namespace:     %s\n", c.Namespace)
				}
				fmt.Printf("  address:       %s:%d\n", c.Host, c.Port)
				fmt.Printf("  connections:   %d-%d\n", c.MinConnections, c.MaxConnections)
				fmt.Printf("  stmt cache:    %d\n", c.StatementCacheCapacity)
				fmt.Printf("  max lifetime:  %s\n", c.MaxLifetime)
				fmt.Printf("  idle timeout:  %s\n", c.IdleTimeout)
				fmt.Printf("  health check:  every %s\n", c.HealthCheckInterval)
			}
			return nil
		},
	}
}
