// Package statuscmder provides the status command for displaying the
// persisted chat session in the local .corelens directory.
package statuscmder

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/corelens-ai/corelens/pkg/cliui"
	"github.com/corelens-ai/corelens/pkg/dotdir"
	"github.com/corelens-ai/corelens/pkg/utils"
)

const statusLongDesc string = `Show the persisted chat session.

Reads the local .corelens/ directory (or ~/.corelens/) to display the saved
session: which assistant and dataset it is bound to and the transcript so far.

If no session exists, indicates that the next chat will start a new
conversation.

Examples:
  corelens status`

const statusShortDesc string = "Show the persisted chat session"

func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: statusShortDesc,
		Long:  statusLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runStatus()
		},
	}

	return cmd
}

func runStatus() error {
	manager := dotdir.NewManager()

	state, err := manager.LoadSessionState("")
	if err != nil {
		return fmt.Errorf("loading session state: %w", err)
	}

	if state == nil {
		fmt.Printf("  %s No session. Next chat will start a new conversation.\n", cliui.DimStyle.Render("●"))
		return nil
	}

	fmt.Printf("\n  %s  %s\n", cliui.KeyStyle.Render("Assistant:"), cliui.NameStyle.Render(state.Assistant))
	if state.DatasetID != "" {
		fmt.Printf("  %s  %s\n", cliui.KeyStyle.Render("Dataset:  "), cliui.IDStyle.Render(state.DatasetID))
	}
	fmt.Printf("  %s  %s\n\n", cliui.KeyStyle.Render("Messages: "), cliui.ValueStyle.Render(strconv.Itoa(len(state.Messages))))

	for i, msg := range state.Messages {
		preview := utils.Truncate(msg.Content, 72)
		fmt.Printf("  %s %s %s\n",
			cliui.DimStyle.Render(fmt.Sprintf("%d.", i+1)),
			cliui.DimStyle.Render("["+msg.Role+"]"),
			cliui.ValueStyle.Render(preview),
		)
	}

	fmt.Println()
	return nil
}
