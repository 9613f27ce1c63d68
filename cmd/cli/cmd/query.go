package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"autodb/internal/database"
	"autodb/internal/intent"
	"autodb/internal/logger"
	"autodb/internal/store"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var queryCmd = &cobra.Command{
	Use:   "query [method_name] [args...]",
	Short: "Run a named query against the database",
	Long: `Resolve a method name such as get_image_by_user_id into a query and run
it directly against the configured database. Missing tables and columns are
created first. Matching rows are printed as JSON.

Example:
  autodbctl query set_image_by_user_id url123 42
  autodbctl query get_status_by_id 3 --table image_service_requests`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := intent.Parse(args[0])
		if err != nil {
			return err
		}
		if table, _ := cmd.Flags().GetString("table"); table != "" {
			in = in.On(table)
		}

		ctx := cmd.Context()
		s, err := connect(ctx, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer s.Close()

		rows, err := s.Run(ctx, in, stringArgs(args[1:])...)
		if err != nil {
			return err
		}
		return printRows(cmd.OutOrStdout(), rows)
	},
}

var execCmd = &cobra.Command{
	Use:   "exec [sql] [args...]",
	Short: "Run raw SQL against the database",
	Long: `Run a raw SQL statement. Tables and columns recognised in the text are
created first. Statements returning rows print them as JSON, others print
the number of affected rows.

Example:
  autodbctl exec "SELECT * FROM images WHERE user_id = ?" 42`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := connect(ctx, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer s.Close()

		res, err := s.RunRaw(ctx, args[0], stringArgs(args[1:])...)
		if err != nil {
			return err
		}
		if res.Rows != nil {
			return printRows(cmd.OutOrStdout(), res.Rows)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d row(s) affected\n", res.RowsAffected)
		return nil
	},
}

func connect(ctx context.Context, logOut io.Writer) (*store.Store, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.NewWithLevel(logOut, viper.GetString("log_level"))
	return database.Connect(ctx, viper.GetString("driver"), viper.GetString("database"), log)
}

func stringArgs(args []string) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = a
	}
	return out
}

func printRows(w io.Writer, rows []store.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func init() {
	queryCmd.Flags().String("table", "", "bind the query to this table instead of the one named in the method")

	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(execCmd)
}
