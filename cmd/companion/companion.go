// Package companioncmder
package companioncmder

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	chatcmder "github.com/papercomputeco/companion/cmd/companion/chat"
	configcmder "github.com/papercomputeco/companion/cmd/companion/config"
	democmder "github.com/papercomputeco/companion/cmd/companion/demo"
	servecmder "github.com/papercomputeco/companion/cmd/companion/serve"
	watchcmder "github.com/papercomputeco/companion/cmd/companion/watch"
	versioncmder "github.com/papercomputeco/companion/cmd/version"
)

const companionLongDesc string = `Companion is a rule-based conversational companion.

It reads emotion and intent from each message, remembers what you tell it
and answers with templated, empathetic replies.

Commands:
  companion serve      Run the API server
  companion chat       Chat with a running server
  companion demo       Play a scripted conversation locally
  companion watch      Follow live conversation events
  companion config     Manage persistent configuration`

const companionShortDesc string = "Companion - rule-based conversational companion"

func NewCompanionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "companion",
		Short: companionShortDesc,
		Long:  companionLongDesc,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			// A missing .env is fine.
			_ = godotenv.Load()
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to the .companion/ config directory")

	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(democmder.NewDemoCmd())
	cmd.AddCommand(watchcmder.NewWatchCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
