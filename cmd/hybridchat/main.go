package main

import (
	"os"

	"github.com/spf13/cobra"

	chatcmder "github.com/papercomputeco/hybridchat/cmd/hybridchat/chat"
	servecmder "github.com/papercomputeco/hybridchat/cmd/hybridchat/serve"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "hybridchat",
		Short:        "Search-grounded chatbot API and client",
		SilenceUsage: true,
	}

	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())

	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
