package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/editsync/editsync/internal/api"
)

var (
	flagEmail    string
	flagPassword string
	flagName     string
)

// readPassword falls back to a stdin prompt when --password was not given, so
// the secret stays out of the shell history.
func readPassword() (string, error) {
	if flagPassword != "" {
		return flagPassword, nil
	}
	fmt.Fprint(os.Stderr, "password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	RunE: runE(func(cmd *cobra.Command, args []string) error {
		password, err := readPassword()
		if err != nil {
			return err
		}
		user, err := app.auth.Register(cmd.Context(), flagEmail, password, flagName)
		if err != nil {
			return err
		}
		fmt.Printf("registered and signed in as %s <%s>\n", user.Name, user.Email)
		return nil
	}),
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session credential",
	RunE: runE(func(cmd *cobra.Command, args []string) error {
		password, err := readPassword()
		if err != nil {
			return err
		}
		user, err := app.auth.Login(cmd.Context(), flagEmail, password)
		if err != nil {
			return err
		}
		fmt.Printf("signed in as %s <%s>\n", user.Name, user.Email)
		return nil
	}),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and discard the stored credential",
	RunE: runE(func(cmd *cobra.Command, args []string) error {
		if err := app.auth.Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("signed out")
		return nil
	}),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: runE(func(cmd *cobra.Command, args []string) error {
		user, ok := app.auth.CurrentUser()
		if !ok {
			fmt.Println("not signed in")
			return nil
		}
		fmt.Printf("%s <%s> (id %s)\n", user.Name, user.Email, user.ID)
		return nil
	}),
}

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage the signed-in account",
}

var accountUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update profile fields",
	RunE: runE(func(cmd *cobra.Command, args []string) error {
		var upd api.ProfileUpdate
		if cmd.Flags().Changed("email") {
			upd.Email = &flagEmail
		}
		if cmd.Flags().Changed("name") {
			upd.Name = &flagName
		}
		if upd.Email == nil && upd.Name == nil {
			return &api.ValidationError{Message: "nothing to update, pass --email or --name"}
		}
		user, err := app.auth.UpdateProfile(cmd.Context(), upd)
		if err != nil {
			return err
		}
		fmt.Printf("profile updated: %s <%s>\n", user.Name, user.Email)
		return nil
	}),
}

var accountDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Permanently delete the signed-in account",
	RunE: runE(func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			return &api.ValidationError{Message: "account deletion is permanent, re-run with --yes to confirm"}
		}
		if err := app.auth.DeleteAccount(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("account deleted")
		return nil
	}),
}

func init() {
	for _, c := range []*cobra.Command{registerCmd, loginCmd} {
		c.Flags().StringVar(&flagEmail, "email", "", "account email")
		c.Flags().StringVar(&flagPassword, "password", "", "account password (prompted when omitted)")
		_ = c.MarkFlagRequired("email")
	}
	registerCmd.Flags().StringVar(&flagName, "name", "", "display name")
	_ = registerCmd.MarkFlagRequired("name")

	accountUpdateCmd.Flags().StringVar(&flagEmail, "email", "", "new email")
	accountUpdateCmd.Flags().StringVar(&flagName, "name", "", "new display name")
	accountDeleteCmd.Flags().Bool("yes", false, "confirm deletion")
	accountCmd.AddCommand(accountUpdateCmd, accountDeleteCmd)
}
