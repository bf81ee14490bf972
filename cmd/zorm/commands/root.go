// Package commands implements the zorm CLI commands.
package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	zorm "github.com/satishbabariya/zorm"
	"github.com/satishbabariya/zorm/internal/debug"
)

var (
	configPath string
	driverName string
	verbose    bool
)

// Execute runs the root command.
func Execute() error {
	rootCmd := &cobra.Command{
		Use:     "zorm",
		Short:   "Schema-driven ORM toolkit",
		Long:    "zorm compiles schema-driven queries into dialect-specific SQL and manages named connection pools.",
		Version: zorm.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// A missing .env file is not an error; it simply means the
			// environment is configured some other way.
			_ = godotenv.Load()
			debug.Init(verbose)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "zorm.toml", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVarP(&driverName, "driver", "d", "", "Database driver (mysql, postgres, sqlite); defaults to the configured one")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(NewPingCommand())
	rootCmd.AddCommand(NewPoolsCommand())
	rootCmd.AddCommand(NewEncryptPasswordCommand())

	return rootCmd.Execute()
}

// loadViper reads the configuration file named by the --config flag.
func loadViper() (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", configPath, err)
	}
	return v, nil
}

// resolveDriver picks the database driver from the flag or configuration.
func resolveDriver(v *viper.Viper) string {
	if driverName != "" {
		return strings.ToLower(driverName)
	}
	if name := v.GetString("database.driver"); name != "" {
		return strings.ToLower(name)
	}
	return "postgres"
}

// secretKey reads the password encryption key from the environment. An
// empty key disables password decryption.
func secretKey() []byte {
	if key := os.Getenv("ZORM_SECRET_KEY"); key != "" {
		return []byte(key)
	}
	return nil
}
