package cmd

import (
	"autodb/pkg/api"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Queue a request for a service",
	Long: `Queue a new request through the controller. The scheduler picks it up
on its next sweep.

Example:
  autodbctl submit --service image_service --user u1 --text "a red fox"`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		service, _ := flags.GetString("service")
		user, _ := flags.GetString("user")
		text, _ := flags.GetString("text")

		if user == "" {
			cmd.Println("Error: --user is required")
			return
		}
		if text == "" {
			cmd.Println("Error: --text is required")
			return
		}

		client := NewRequestClient(viper.GetString("url"))
		result, err := client.Submit(service, api.SubmitRequest{UserID: user, Text: text})
		if err != nil {
			if apiErr, ok := err.(*APIError); ok {
				cmd.Printf("Submit failed (%d): %s\n", apiErr.StatusCode, apiErr.Message)
			} else {
				cmd.Printf("Submit failed: %v\n", err)
			}
			return
		}

		cmd.Printf("✓ Request queued!\nID: %d\nStatus: %s\n", result.ID, result.Status)
	},
}

func init() {
	flags := submitCmd.Flags()
	flags.StringP("service", "s", "image_service", "Service to queue the request for")
	flags.StringP("user", "u", "", "Submitting user ID (required)")
	flags.StringP("text", "x", "", "Request text (required)")

	rootCmd.AddCommand(submitCmd)
}
