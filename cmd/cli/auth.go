package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/do4u-project/do4u/cmd/util"
	"github.com/do4u-project/do4u/pkg/config"
	"github.com/do4u-project/do4u/pkg/session"
)

// newLoginCmd stores a bearer token obtained out of band (the backend owns
// authentication; the client only persists the resulting token).
func newLoginCmd() *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an API bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Token: ")
				raw, err := term.ReadPassword(int(os.Stdin.Fd()))
				fmt.Fprintln(cmd.OutOrStdout())
				if err != nil {
					return err
				}
				token = strings.TrimSpace(string(raw))
			}
			if token == "" {
				return fmt.Errorf("no token provided")
			}

			store, err := session.NewStore(config.DataDir())
			if err != nil {
				return err
			}
			if err := store.SetToken(token); err != nil {
				return err
			}
			cmd.Println("Token stored.")
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Token value; prompted for when omitted")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored API bearer token",
		Run: func(cmd *cobra.Command, args []string) {
			store, err := session.NewStore(config.DataDir())
			if err != nil {
				util.Fatal(cmd, err, 1)
			}
			if err := store.ClearToken(); err != nil {
				util.Fatal(cmd, err, 1)
			}
			cmd.Println("Logged out.")
		},
	}
}
