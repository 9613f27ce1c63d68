package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "autodbctl",
	Short: "autodbctl queries an autodb database and talks to its controller",
	Long: `autodbctl is the command-line interface for autodb.

Method names are resolved into queries and run directly against the
database; tables and columns they mention are created when missing.

Common workflows:

  Run a named query:
    autodbctl query set_image_by_user_id url123 42
    autodbctl query get_image_by_user_id 42

  Run raw SQL:
    autodbctl exec "SELECT * FROM images WHERE user_id = ?" 42

  Queue and follow a request through the controller:
    autodbctl submit --service image_service --user u1 --text "a red fox"
    autodbctl status --service image_service --user u1
    autodbctl done 1 --service image_service

Configuration:
  Flags, a config file or environment variables:
    AUTODB_URL       Controller URL (default: http://localhost:6161)
    AUTODB_DRIVER    Database driver (default: sqlite3)
    AUTODB_DATABASE  Database URL or path (default: autodb.db)`,
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".autodbctl"
		viper.AddConfigPath(home)
		viper.SetConfigName(".autodbctl")
		viper.SetConfigType("yaml")
	}

	// Read environment variables that match "AUTODB_VARNAME"
	viper.SetEnvPrefix("AUTODB")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.autodbctl.yaml)")

	flags.String("url", "http://localhost:6161", "autodb controller URL")
	viper.BindPFlag("url", flags.Lookup("url"))

	flags.String("driver", "sqlite3", "database driver: sqlite3, postgres, pgx or mysql")
	viper.BindPFlag("driver", flags.Lookup("driver"))

	flags.String("database", "autodb.db", "database URL or path")
	viper.BindPFlag("database", flags.Lookup("database"))

	flags.String("log-level", "warn", "engine log level")
	viper.BindPFlag("log_level", flags.Lookup("log-level"))
}
