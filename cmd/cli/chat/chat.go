package chat

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/do4u-project/do4u/cmd/util"
	"github.com/do4u-project/do4u/cmd/util/output"
	"github.com/do4u-project/do4u/pkg/chat"
	"github.com/do4u-project/do4u/pkg/models"
)

func NewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat <job-id>",
		Short: "Open the chat channel for a job",
		Long: `Opens an interactive chat session for a job. Incoming messages print as
they arrive; lines you type are sent. End with Ctrl-D or /quit.`,
		Args: cobra.ExactArgs(1),
		RunE: runChat,
	}
	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	jobID := args[0]

	api, _, err := util.GetAPIClient(ctx)
	if err != nil {
		return err
	}

	job, err := api.Job(ctx, jobID)
	if err != nil {
		return err
	}
	if !job.Status.AllowsChat() {
		return fmt.Errorf("chat is not available: job is %s", job.Status)
	}

	channel := chat.NewChannel(jobID, api,
		chat.WithMessageCallback(func(m models.ChatMessage) {
			printMessage(cmd, m)
		}))
	defer channel.Close()

	channel.SetStatus(job.Status)
	if err := channel.OpenPanel(ctx); err != nil {
		return err
	}
	cmd.Printf("Connected to chat for %q. Type to send, /quit to leave.\n", job.Title)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok || strings.TrimSpace(line) == "/quit" {
				return nil
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if err := channel.Send(line); err != nil {
				cmd.PrintErrln(output.RedStr("send failed: " + err.Error()))
				if channel.Status() == chat.StatusNotConnected {
					return fmt.Errorf("chat disconnected; rerun to reconnect")
				}
			}
		}
	}
}

func printMessage(cmd *cobra.Command, m models.ChatMessage) {
	name := m.SenderName
	if name == "" {
		name = m.SenderID
	}
	stamp := m.CreatedAt.Local().Format("15:04")
	cmd.Printf("[%s] %s: %s\n", stamp, output.GreenStr(name), m.Content)
}
