package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/goliatone/go-library-records/consistency"
	"github.com/goliatone/go-library-records/model"
)

// tokenNotifier remembers the last verification token so register can
// print it, then forwards to next.
type tokenNotifier struct {
	next consistency.Notifier

	mu    sync.Mutex
	token string
}

func (n *tokenNotifier) AccountCreated(ctx context.Context, account *model.Account, token string) error {
	n.mu.Lock()
	n.token = token
	n.mu.Unlock()
	return n.next.AccountCreated(ctx, account, token)
}

func (n *tokenNotifier) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.token
}

// readPassword prompts on stderr when stdin is a terminal and reads a
// single line otherwise.
func readPassword(cmd *cobra.Command, prompt string) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(secret)), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

type registration struct {
	Account           *model.Account `json:"account"`
	VerificationToken string         `json:"verificationToken"`
}

func newAccountCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}

	var in model.AccountInput
	var role string
	register := &cobra.Command{
		Use:   "register",
		Short: "Create an account and its profile",
		Long: "Create an account and its teacher or student profile.\n" +
			"The password is read from the terminal, or from the first line of stdin.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := readPassword(cmd, "Password: ")
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			in.Password = password
			in.Role = model.Role(role)

			account, err := a.container.Manager().RegisterAccount(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), registration{
				Account:           account,
				VerificationToken: a.notifier.last(),
			})
		},
	}
	register.Flags().StringVar(&in.FirstName, "first-name", "", "first name")
	register.Flags().StringVar(&in.LastName, "last-name", "", "last name")
	register.Flags().StringVar(&in.Email, "email", "", "email address")
	register.Flags().StringVar(&role, "role", string(model.RoleStudent), "admin, teacher or student")
	register.Flags().StringVar(&in.TeacherEmail, "teacher-email", "", "teacher of a student account")
	required(register, "first-name", "last-name", "email")

	verify := &cobra.Command{
		Use:   "verify <account-id> <token>",
		Short: "Confirm an account with its verification token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(model.KindAccount, args[0])
			if err != nil {
				return err
			}
			account, err := a.container.Manager().VerifyAccount(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), account)
		},
	}

	var email string
	login := &cobra.Command{
		Use:   "login",
		Short: "Check an email and password pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := readPassword(cmd, "Password: ")
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			account, err := a.container.Manager().Authenticate(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), account)
		},
	}
	login.Flags().StringVar(&email, "email", "", "email address")
	required(login, "email")

	var first, last string
	update := &cobra.Command{
		Use:   "update <account-id>",
		Short: "Rename an account and the profile it owns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(model.KindAccount, args[0])
			if err != nil {
				return err
			}
			var patch model.AccountPatch
			if cmd.Flags().Changed("first-name") {
				patch.FirstName = &first
			}
			if cmd.Flags().Changed("last-name") {
				patch.LastName = &last
			}
			account, err := a.container.Manager().UpdateAccount(cmd.Context(), id, patch)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), account)
		},
	}
	update.Flags().StringVar(&first, "first-name", "", "new first name")
	update.Flags().StringVar(&last, "last-name", "", "new last name")
	update.MarkFlagsOneRequired("first-name", "last-name")

	cmd.AddCommand(register, verify, login, update)
	return cmd
}
