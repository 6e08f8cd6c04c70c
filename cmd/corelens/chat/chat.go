// Package chatcmder provides the chat command for interactive assistant
// conversations over the corelens API.
package chatcmder

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/corelens-ai/corelens/pkg/assistant"
	"github.com/corelens-ai/corelens/pkg/client"
	"github.com/corelens-ai/corelens/pkg/cliui"
	"github.com/corelens-ai/corelens/pkg/config"
	"github.com/corelens-ai/corelens/pkg/dotdir"
	"github.com/corelens-ai/corelens/pkg/logger"
	"github.com/corelens-ai/corelens/pkg/stream"
)

var (
	userPrompt      = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	assistantPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("assistant> ")
	toolStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

type chatCommander struct {
	apiTarget string
	assistant string
	datasetID string
	fresh     bool
	debug     bool

	logger *zap.Logger
	client *client.Client
	dotdir *dotdir.Manager
}

const chatLongDesc string = `Start an interactive chat session with a data assistant.

Messages stream back token by token. When the assistant uses a tool
(run_query, list_tables, search_dictionary), the call and its result are
shown inline.

Available assistants:
  data-qa     Answers questions about uploaded datasets with SQL
  ontology    Helps document columns and business terminology
  recipe      Helps design ML training recipes over datasets

The session (assistant, dataset, and transcript) is persisted in the
.corelens/ directory and restored on the next run. Use --fresh to discard
it and start over.

Examples:
  corelens chat
  corelens chat --assistant ontology --dataset ds-123
  corelens chat --fresh`

const chatShortDesc string = "Interactive chat with a data assistant"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if !cmd.Flags().Changed("api-target") {
				cmder.apiTarget = cfg.Client.APITarget
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)
	cmd.Flags().StringVarP(&cmder.assistant, "assistant", "a", "data-qa",
		"Assistant profile ("+strings.Join(assistant.ProfileNames(), ", ")+")")
	cmd.Flags().StringVar(&cmder.datasetID, "dataset", "", "Scope the conversation to a dataset ID")
	cmd.Flags().BoolVar(&cmder.fresh, "fresh", false, "Discard the persisted session and start over")

	return cmd
}

func (c *chatCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	c.client = client.New(c.apiTarget)
	c.dotdir = dotdir.NewManager()

	if c.fresh {
		if err := c.dotdir.ClearSession(""); err != nil {
			return fmt.Errorf("clearing session: %w", err)
		}
	}

	state, err := c.dotdir.LoadSessionState("")
	if err != nil {
		return fmt.Errorf("loading session state: %w", err)
	}

	fmt.Println()
	if state != nil {
		// Resume: the persisted assistant and dataset win over defaults.
		if c.assistant == "data-qa" && state.Assistant != "" {
			c.assistant = state.Assistant
		}
		if c.datasetID == "" {
			c.datasetID = state.DatasetID
		}
		fmt.Printf("  %s Resuming session %s\n",
			cliui.SuccessMark,
			cliui.DimStyle.Render(fmt.Sprintf("(%d messages)", len(state.Messages))),
		)
	} else {
		state = &dotdir.SessionState{}
		fmt.Printf("  %s New conversation\n", cliui.DimStyle.Render("●"))
	}

	state.Assistant = c.assistant
	state.DatasetID = c.datasetID

	fmt.Printf("  %s %s\n",
		cliui.KeyStyle.Render("Assistant:"),
		cliui.NameStyle.Render(c.assistant),
	)
	if c.datasetID != "" {
		fmt.Printf("  %s %s\n",
			cliui.KeyStyle.Render("Dataset:  "),
			cliui.IDStyle.Render(c.datasetID),
		)
	}
	fmt.Printf("\n  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /exit or Ctrl+D to quit."))

	scanner := bufio.NewScanner(os.Stdin)
	interactive := term.IsTerminal(int(os.Stdin.Fd()))

	for {
		if interactive {
			fmt.Print(userPrompt)
		}
		if !scanner.Scan() {
			// EOF or error
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/exit" {
			break
		}

		content, err := c.sendAndStream(input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  %s %v\n", cliui.FailMark, err)
			continue
		}

		state.Messages = append(state.Messages,
			dotdir.SessionMessage{Role: "user", Content: input},
			dotdir.SessionMessage{Role: "assistant", Content: content},
		)
		if err := c.dotdir.SaveSession(state, ""); err != nil {
			c.logger.Warn("saving session", zap.Error(err))
		}

		fmt.Println()
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Println()
	return nil
}

// sendAndStream sends one turn and streams the response to stdout.
// Returns the full assistant response text.
func (c *chatCommander) sendAndStream(input string) (string, error) {
	c.logger.Debug("sending chat request",
		zap.String("api_target", c.apiTarget),
		zap.String("assistant", c.assistant),
		zap.String("dataset_id", c.datasetID),
	)

	body, err := c.client.StreamChat(context.Background(), client.ChatRequest{
		Content:   input,
		Assistant: c.assistant,
		DatasetID: c.datasetID,
	})
	if err != nil {
		return "", err
	}
	defer body.Close()

	fmt.Print(assistantPrompt)

	var (
		content   string
		printed   int
		streamErr string
	)
	tracker := stream.NewToolCallTracker()

	reader := stream.NewReader(body, stream.Handlers{
		OnDelta: func(text string) {
			// The reader delivers the full accumulated text; print only
			// the suffix that is new since the last delta.
			if len(text) > printed {
				fmt.Print(text[printed:])
				printed = len(text)
			}
			content = text
		},
		OnToolCall: func(name string, input map[string]any) {
			tracker.Record(name, input)
			fmt.Printf("\n  %s %s\n", toolStyle.Render("⚙ "+name), cliui.DimStyle.Render(summarizeInput(input)))
		},
		OnToolResult: func(name string, result json.RawMessage) {
			tracker.Resolve(name)
			fmt.Printf("  %s %s\n", cliui.SuccessMark, cliui.DimStyle.Render(name+" returned"))
		},
		OnError: func(message string) {
			streamErr = message
		},
	}, stream.WithLogger(c.logger))

	if err := reader.Run(); err != nil {
		return content, fmt.Errorf("reading stream: %w", err)
	}
	if streamErr != "" {
		return content, fmt.Errorf("assistant error: %s", streamErr)
	}

	fmt.Println()
	return content, nil
}

func summarizeInput(input map[string]any) string {
	if sql, ok := input["sql"].(string); ok {
		return sql
	}
	if query, ok := input["query"].(string); ok {
		return query
	}
	if len(input) == 0 {
		return ""
	}
	return fmt.Sprintf("%v", input)
}
