package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/zorm/pool"
)

// NewEncryptPasswordCommand creates the encrypt-password command, used to
// prepare password values for the configuration file.
func NewEncryptPasswordCommand() *cobra.Command {
	var username, database, password string

	cmd := &cobra.Command{
		Use:   "encrypt-password",
		Short: "Encrypt a database password for use in the configuration file",
		Long: `Encrypt a database password with the key from ZORM_SECRET_KEY.
The ciphertext is bound to the username and database it is encrypted for,
so it cannot be reused in another pool declaration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := secretKey()
			if len(key) == 0 {
				return fmt.Errorf("ZORM_SECRET_KEY is not set")
			}
			encrypted, err := pool.EncryptPassword(key, username, database, password)
			if err != nil {
				return err
			}
			fmt.Println(encrypted)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username the password belongs to")
	cmd.Flags().StringVar(&database, "database", "", "Database the password belongs to")
	cmd.Flags().StringVar(&password, "password", "", "Plaintext password to encrypt")
	_ = cmd.MarkFlagRequired("database")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
