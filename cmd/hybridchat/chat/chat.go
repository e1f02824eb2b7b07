package chatcmder

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/hybridchat/pkg/client"
	"github.com/papercomputeco/hybridchat/pkg/tui"
)

const chatLongDesc string = `Chat with a running hybridchat server from the terminal.

Answers are rendered as markdown. Press Enter to send, Esc or Ctrl+C
to quit.

Examples:
  hybridchat chat
  hybridchat chat --server http://192.168.1.42:8000`

const chatShortDesc string = "Interactive terminal chat client"

type chatCommander struct {
	serverURL string
	timeout   time.Duration
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run()
		},
	}

	cmd.Flags().StringVarP(&cmder.serverURL, "server", "s", "http://localhost:8000", "hybridchat server URL")
	cmd.Flags().DurationVar(&cmder.timeout, "timeout", 3*time.Minute, "Per-message request timeout")

	return cmd
}

func (c *chatCommander) run() error {
	return tui.Run(client.New(c.serverURL, c.timeout))
}
