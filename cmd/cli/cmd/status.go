package cmd

import (
	"autodb/pkg/api"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List a user's requests and their status",
	Long:  `Poll the controller for every request of a user, with its current state (pending, processing, waiting, done, error) and result.`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		service, _ := flags.GetString("service")
		user, _ := flags.GetString("user")

		if user == "" {
			cmd.Println("Error: --user is required")
			return
		}

		client := NewRequestClient(viper.GetString("url"))
		result, err := client.List(service, user)
		if err != nil {
			if apiErr, ok := err.(*APIError); ok {
				cmd.Printf("Request failed (%d): %s\n", apiErr.StatusCode, apiErr.Message)
			} else {
				cmd.Printf("Request failed: %v\n", err)
			}
			return
		}

		printStatus(cmd, result)
	},
}

func printStatus(cmd *cobra.Command, list *api.ListRequestsResponse) {
	cmd.Printf("%s%s requests%s\n", colorBold, list.Service, colorReset)
	cmd.Println("──────────────────────────────")

	if len(list.Requests) == 0 {
		cmd.Println("No requests found")
		return
	}

	for _, r := range list.Requests {
		result := r.Result
		if result == "" {
			result = "-"
		}
		cmd.Printf("%s#%-6d%s %-24s %s\n", colorDim, r.ID, colorReset, colorizeStatus(r.Status), result)
	}
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

func statusIcon(status string) string {
	switch status {
	case "done":
		return colorGreen + "✓" + colorReset
	case "error":
		return colorRed + "✗" + colorReset
	case "processing":
		return colorYellow + "⏳" + colorReset
	case "waiting":
		return colorCyan + "◉" + colorReset
	case "pending":
		return colorCyan + "◯" + colorReset
	default:
		return "•"
	}
}

func colorizeStatus(status string) string {
	icon := statusIcon(status)
	switch status {
	case "done":
		return icon + " " + colorGreen + status + colorReset
	case "error":
		return icon + " " + colorRed + status + colorReset
	case "processing":
		return icon + " " + colorYellow + status + colorReset
	case "waiting", "pending":
		return icon + " " + colorCyan + status + colorReset
	default:
		return status
	}
}

func init() {
	flags := statusCmd.Flags()
	flags.StringP("service", "s", "image_service", "Service the requests belong to")
	flags.StringP("user", "u", "", "User ID to list requests for (required)")

	rootCmd.AddCommand(statusCmd)
}
