package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/editsync/editsync/internal/access"
	"github.com/editsync/editsync/internal/api"
)

var shareCmd = &cobra.Command{
	Use:   "share",
	Short: "Manage document sharing",
}

// withShareSession opens a sharing session for the document, runs fn, and
// tears the session down again.
func withShareSession(cmd *cobra.Command, docID string, fn func() error) error {
	if err := app.share.Open(cmd.Context(), docID); err != nil {
		return err
	}
	defer app.share.Close()
	return fn()
}

var shareLinkCmd = &cobra.Command{
	Use:   "link <id>",
	Short: "Print the public share link for a document",
	Args:  cobra.ExactArgs(1),
	RunE: runE(func(cmd *cobra.Command, args []string) error {
		return withShareSession(cmd, args[0], func() error {
			fmt.Println(app.share.ShareLink())
			return nil
		})
	}),
}

var shareUsersCmd = &cobra.Command{
	Use:   "users <id>",
	Short: "List a document's collaborators",
	Args:  cobra.ExactArgs(1),
	RunE: runE(func(cmd *cobra.Command, args []string) error {
		return withShareSession(cmd, args[0], func() error {
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tEMAIL\tPERMISSION\tROLE")
			ownerID := app.share.OwnerID()
			for _, u := range app.share.SharedUsers() {
				perm, _ := access.ParsePermission(u.Permission)
				role := access.RoleForPermission(perm)
				if u.ID == ownerID {
					role = access.RoleOwner
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Email, u.Permission, role)
			}
			return w.Flush()
		})
	}),
}

var shareInviteCmd = &cobra.Command{
	Use:   "invite <id> <email>",
	Short: "Invite a collaborator by email",
	Args:  cobra.ExactArgs(2),
	RunE: runE(func(cmd *cobra.Command, args []string) error {
		permission, _ := cmd.Flags().GetString("permission")
		return withShareSession(cmd, args[0], func() error {
			su, err := app.share.InviteByEmail(cmd.Context(), args[1], access.Permission(permission))
			if err != nil {
				return err
			}
			fmt.Printf("invited %s with %s access\n", su.Email, su.Permission)
			return nil
		})
	}),
}

var shareRemoveCmd = &cobra.Command{
	Use:   "remove <id> <userId>",
	Short: "Remove a collaborator",
	Args:  cobra.ExactArgs(2),
	RunE: runE(func(cmd *cobra.Command, args []string) error {
		return withShareSession(cmd, args[0], func() error {
			if err := app.share.RemoveAccess(cmd.Context(), args[1]); err != nil {
				return err
			}
			fmt.Println("removed")
			return nil
		})
	}),
}

var shareEmailCmd = &cobra.Command{
	Use:   "email <id> <email>",
	Short: "Invite a collaborator and send them a share notification",
	Args:  cobra.ExactArgs(2),
	RunE: runE(func(cmd *cobra.Command, args []string) error {
		permission, _ := cmd.Flags().GetString("permission")
		message, _ := cmd.Flags().GetString("message")
		return withShareSession(cmd, args[0], func() error {
			su, err := app.share.ShareByEmail(cmd.Context(), args[1], access.Permission(permission), message)
			if err != nil {
				return err
			}
			fmt.Printf("shared with %s (%s access)\n", su.Email, su.Permission)
			return nil
		})
	}),
}

var shareSettingsCmd = &cobra.Command{
	Use:   "settings <id> [key=value ...]",
	Short: "Show or update share settings (isPublic, allowComments, permission, expiresIn)",
	Args:  cobra.MinimumNArgs(1),
	RunE: runE(func(cmd *cobra.Command, args []string) error {
		return withShareSession(cmd, args[0], func() error {
			for _, pair := range args[1:] {
				key, raw, ok := strings.Cut(pair, "=")
				if !ok {
					return &api.ValidationError{Message: "settings take the form key=value"}
				}
				var value interface{} = raw
				if b, err := strconv.ParseBool(raw); err == nil && (key == "isPublic" || key == "allowComments") {
					value = b
				}
				if err := app.share.UpdateSetting(cmd.Context(), key, value); err != nil {
					return err
				}
			}
			s := app.share.Settings()
			fmt.Printf("isPublic=%t allowComments=%t permission=%s expiresIn=%s\n",
				s.IsPublic, s.AllowComments, s.Permission, s.ExpiresIn)
			return nil
		})
	}),
}

func init() {
	shareInviteCmd.Flags().String("permission", "view", "permission to grant (view, edit, comment)")
	shareEmailCmd.Flags().String("permission", "view", "permission to grant (view, edit, comment)")
	shareEmailCmd.Flags().String("message", "", "personal message included in the email")
	shareCmd.AddCommand(shareLinkCmd, shareUsersCmd, shareInviteCmd, shareRemoveCmd, shareEmailCmd, shareSettingsCmd)
}
