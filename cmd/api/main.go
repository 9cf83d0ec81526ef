package main

import (
	"os"

	_ "github.com/dhima/feishu-notifier/docs" // Import generated docs
)

// @title Feishu Notifier API
// @version 1.0
// @description Scheduled and event-driven notifications for Feishu group chat bots.
// @description
// @description ## Features
// @description - **Calendar tasks**: fire at a time of day on selected weekdays with static text, a news digest or an LLM completion
// @description - **Repository events**: GitHub and GitLab webhooks matched by repository, signature, event type and weekday
// @description - **Execution logs**: one log per dispatch, optionally streamed to Kafka
// @description - **Tools**: webhook connectivity test and news digest preview

// @contact.name API Support
// @contact.url https://github.com/dhima/feishu-notifier

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
