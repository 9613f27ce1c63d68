package cmd

import (
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var doneCmd = &cobra.Command{
	Use:   "done [request_id]",
	Short: "Acknowledge delivery of a request's result",
	Long:  `Mark a waiting request as done once its result has been collected. Requests in any other state are rejected.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			cmd.Printf("Error: invalid request ID %q\n", args[0])
			return
		}
		service, _ := cmd.Flags().GetString("service")

		client := NewRequestClient(viper.GetString("url"))
		result, err := client.Complete(service, id)
		if err != nil {
			if apiErr, ok := err.(*APIError); ok {
				cmd.Printf("Acknowledge failed (%d): %s\n", apiErr.StatusCode, apiErr.Message)
			} else {
				cmd.Printf("Acknowledge failed: %v\n", err)
			}
			return
		}

		cmd.Printf("✓ Request %d is %s\n", result.ID, result.Status)
	},
}

func init() {
	doneCmd.Flags().StringP("service", "s", "image_service", "Service the request belongs to")

	rootCmd.AddCommand(doneCmd)
}
