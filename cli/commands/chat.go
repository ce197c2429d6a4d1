package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ragline/ragline/api"
	"github.com/ragline/ragline/core"
)

// Exit codes
const (
	ExitSuccess    = 0
	ExitValidation = 1
	ExitAPI        = 2
	ExitNetwork    = 3
	ExitAuth       = 4
)

func (a *App) newChatCommand() *cobra.Command {
	var (
		conversationID string
		prompt         string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Ask a question and stream the answer",
		Long: `Send a question into a conversation and print the answer as it
streams back.

Examples:
  ragline chat --conversation abc123 --prompt "What does the contract say about renewal?"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if conversationID == "" {
				return exitWithCode(ExitValidation, fmt.Errorf("conversation required: use --conversation"))
			}

			svc, closer, err := a.newService(a.cfg)
			if err != nil {
				return exitWithCode(ExitValidation, err)
			}
			if closer != nil {
				defer closer()
			}

			stream, err := svc.Completion(cmd.Context(), api.CompletionRequest{
				ConversationID: conversationID,
				Messages:       []api.Message{{Role: api.RoleUser, Content: prompt}},
			})
			if err != nil {
				return a.handleAPIError(err)
			}
			defer stream.Close()

			fmt.Fprintf(a.stdout, "> %s\n", prompt)

			// Each data event resends the whole answer so far; print only
			// the unprinted suffix.
			printed := 0
			for ev := range stream.Events() {
				switch ev.Kind {
				case core.StreamData:
					delta, ok := api.DecodeDelta(ev)
					if !ok {
						continue
					}
					if len(delta.Answer) > printed {
						fmt.Fprint(a.stdout, delta.Answer[printed:])
						printed = len(delta.Answer)
					}
				case core.StreamError:
					fmt.Fprintln(a.stdout)
					return a.handleAPIError(ev.Err)
				case core.StreamDone:
				}
			}

			fmt.Fprintln(a.stdout)
			return nil
		},
	}

	cmd.Flags().StringVar(&conversationID, "conversation", "", "conversation ID (required)")
	cmd.Flags().StringVar(&prompt, "prompt", "", "user message (required)")
	_ = cmd.MarkFlagRequired("prompt")
	return cmd
}

// handleAPIError reports a classified error and maps it to an exit code.
func (a *App) handleAPIError(err error) error {
	var apiErr *core.APIError
	if errors.As(err, &apiErr) {
		fmt.Fprintf(a.stderr, "Error: %s\n", apiErr.Message)

		switch {
		case errors.Is(err, core.ErrUnauthorized):
			fmt.Fprintln(a.stderr, "  Run 'ragline login' to start a new session.")
			return exitWithCode(ExitAuth, err)
		case errors.Is(err, core.ErrNetwork):
			return exitWithCode(ExitNetwork, err)
		default:
			return exitWithCode(ExitAPI, err)
		}
	}

	fmt.Fprintf(a.stderr, "Error: %v\n", err)
	return exitWithCode(ExitAPI, err)
}

// exitError wraps an error with an exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) ExitCode() int {
	return e.code
}

func exitWithCode(code int, err error) error {
	return &exitError{code: code, err: err}
}
