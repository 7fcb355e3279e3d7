package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"library-client/internal/domain"
)

var (
	loginPassword  string
	signupFullName string
	signupAddress  string
	signupPhone    string
	whoamiRefresh  bool
)

func init() {
	rootCmd.AddCommand(loginCmd, signupCmd, logoutCmd, whoamiCmd)

	loginCmd.Flags().StringVar(&loginPassword, "password", "", "password (prompted when omitted)")

	signupCmd.Flags().StringVar(&loginPassword, "password", "", "password (prompted when omitted)")
	signupCmd.Flags().StringVar(&signupFullName, "full-name", "", "full name shown to other readers")
	signupCmd.Flags().StringVar(&signupAddress, "address", "", "postal address")
	signupCmd.Flags().StringVar(&signupPhone, "phone", "", "phone number")

	whoamiCmd.Flags().BoolVar(&whoamiRefresh, "refresh", false, "re-read the profile from the server")
}

var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Sign in and remember the session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := passwordFor(cmd.InOrStdin(), loginPassword)
		if err != nil {
			return err
		}
		sess, err := lib.store.SignIn(cmd.Context(), domain.Credentials{Username: args[0], Password: password})
		if err != nil {
			return err
		}
		lib.printf("Signed in as %s.\n", describe(sess))
		return nil
	},
}

var signupCmd = &cobra.Command{
	Use:   "signup <username>",
	Short: "Create an account and sign in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := passwordFor(cmd.InOrStdin(), loginPassword)
		if err != nil {
			return err
		}
		sess, err := lib.store.SignUp(cmd.Context(), domain.Signup{
			Username: args[0],
			Password: password,
			FullName: signupFullName,
			Address:  signupAddress,
			Phone:    signupPhone,
		})
		if err != nil {
			return err
		}
		lib.printf("Welcome, %s.\n", describe(sess))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		was := lib.store.Current()
		lib.store.SignOut(cmd.Context())
		lib.coord.Reset()
		if was.Authenticated() {
			lib.printf("Signed out %s.\n", was.Username)
		}
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess := lib.store.Current()
		if whoamiRefresh && sess.Authenticated() {
			var err error
			if sess, err = lib.store.Refresh(cmd.Context()); err != nil {
				return err
			}
		}
		if !sess.Authenticated() {
			lib.printf("Not signed in.\n")
			return nil
		}
		lib.printf("%s\n", describe(sess))
		return nil
	},
}

func describe(sess domain.Session) string {
	s := sess.Username
	if sess.DisplayName != "" && sess.DisplayName != sess.Username {
		s = fmt.Sprintf("%s (%s)", sess.DisplayName, sess.Username)
	}
	if sess.IsAdmin {
		s += " [admin]"
	}
	return s
}

// passwordFor returns flagValue when set, otherwise prompts without echo on
// a terminal or reads one line from a pipe.
func passwordFor(stdin io.Reader, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}

	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(os.Stderr, "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
