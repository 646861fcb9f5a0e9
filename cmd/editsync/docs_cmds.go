package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/editsync/editsync/internal/api"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Manage documents",
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents you can access",
	RunE: runE(func(cmd *cobra.Command, args []string) error {
		docs, err := app.docs.List(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tPUBLIC\tUPDATED")
		for _, d := range docs {
			fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", d.ID, d.Title, d.IsPublic, d.UpdatedAt)
		}
		return w.Flush()
	}),
}

var docsCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a document",
	Args:  cobra.ExactArgs(1),
	RunE: runE(func(cmd *cobra.Command, args []string) error {
		content, _ := cmd.Flags().GetString("content")
		doc, err := app.docs.Create(cmd.Context(), args[0], content)
		if err != nil {
			return err
		}
		fmt.Printf("created %s (%s)\n", doc.Title, doc.ID)
		return nil
	}),
}

var docsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print a document",
	Args:  cobra.ExactArgs(1),
	RunE: runE(func(cmd *cobra.Command, args []string) error {
		doc, err := app.docs.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("# %s\n\n%s\n", doc.Title, doc.Content)
		return nil
	}),
}

var docsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a document's title or content",
	Args:  cobra.ExactArgs(1),
	RunE: runE(func(cmd *cobra.Command, args []string) error {
		var upd api.DocumentUpdate
		if cmd.Flags().Changed("title") {
			v, _ := cmd.Flags().GetString("title")
			upd.Title = &v
		}
		if cmd.Flags().Changed("content") {
			v, _ := cmd.Flags().GetString("content")
			upd.Content = &v
		}
		if upd.Title == nil && upd.Content == nil {
			return &api.ValidationError{Message: "nothing to update, pass --title or --content"}
		}
		doc, err := app.docs.Update(cmd.Context(), args[0], upd)
		if err != nil {
			return err
		}
		fmt.Printf("updated %s (%s)\n", doc.Title, doc.ID)
		return nil
	}),
}

var docsRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a document",
	Args:  cobra.ExactArgs(1),
	RunE: runE(func(cmd *cobra.Command, args []string) error {
		if err := app.docs.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("deleted")
		return nil
	}),
}

var docsDuplicateCmd = &cobra.Command{
	Use:   "duplicate <id>",
	Short: "Duplicate a document",
	Args:  cobra.ExactArgs(1),
	RunE: runE(func(cmd *cobra.Command, args []string) error {
		doc, err := app.docs.Duplicate(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("created %s (%s)\n", doc.Title, doc.ID)
		return nil
	}),
}

var docsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a .txt, .md, or .docx file as a new document",
	Args:  cobra.ExactArgs(1),
	RunE: runE(func(cmd *cobra.Command, args []string) error {
		doc, err := app.docs.Import(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("imported %s as %s (%s)\n", args[0], doc.Title, doc.ID)
		return nil
	}),
}

func init() {
	docsCreateCmd.Flags().String("content", "", "initial content")
	docsUpdateCmd.Flags().String("title", "", "new title")
	docsUpdateCmd.Flags().String("content", "", "new content")
	docsCmd.AddCommand(docsListCmd, docsCreateCmd, docsGetCmd, docsUpdateCmd, docsRmCmd, docsDuplicateCmd, docsImportCmd)
}
