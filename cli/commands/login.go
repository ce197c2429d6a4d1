package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func (a *App) newLoginCommand() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the backend",
		Long:  `Sign in with email and password. The password is prompted without echo; the issued session token is stored locally and reused by later commands.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return exitWithCode(ExitValidation, fmt.Errorf("email required: use --email"))
			}

			password, err := a.promptPassword(fmt.Sprintf("Password for %s: ", email))
			if err != nil {
				return exitWithCode(ExitValidation, err)
			}

			svc, closer, err := a.newService(a.cfg)
			if err != nil {
				return exitWithCode(ExitValidation, err)
			}
			if closer != nil {
				defer closer()
			}

			user, err := svc.Login(cmd.Context(), email, password)
			if err != nil {
				return a.handleAPIError(err)
			}
			fmt.Fprintf(a.stdout, "Signed in as %s.\n", displayName(user.Nickname, user.Email))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (required)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *App) newRegisterCommand() *cobra.Command {
	var email, nickname string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return exitWithCode(ExitValidation, fmt.Errorf("email required: use --email"))
			}
			if nickname == "" {
				nickname = email
			}

			password, err := a.promptPassword("Choose a password: ")
			if err != nil {
				return exitWithCode(ExitValidation, err)
			}

			svc, closer, err := a.newService(a.cfg)
			if err != nil {
				return exitWithCode(ExitValidation, err)
			}
			if closer != nil {
				defer closer()
			}

			user, err := svc.Register(cmd.Context(), nickname, email, password)
			if err != nil {
				return a.handleAPIError(err)
			}
			fmt.Fprintf(a.stdout, "Account created. Signed in as %s.\n", displayName(user.Nickname, user.Email))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (required)")
	cmd.Flags().StringVar(&nickname, "nickname", "", "display name (defaults to email)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// promptPassword reads a secret from the terminal without echo, falling
// back to a plain line read when stdin is piped.
func (a *App) promptPassword(prompt string) (string, error) {
	fmt.Fprint(a.stdout, prompt)

	if f, ok := a.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		raw, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(a.stdout) // Newline after hidden input
		password := string(raw)
		if password == "" {
			return "", fmt.Errorf("password cannot be empty")
		}
		return password, nil
	}

	// Fallback for non-terminal (e.g., piped input)
	reader := bufio.NewReader(a.stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimSpace(line)
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	return password, nil
}

func displayName(nickname, email string) string {
	if nickname != "" {
		return nickname
	}
	return email
}
