package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ragline/ragline/api"
	"github.com/ragline/ragline/core"
)

func (a *App) newDocCommand() *cobra.Command {
	doc := &cobra.Command{
		Use:   "doc",
		Short: "Manage documents in a knowledge base",
	}
	doc.AddCommand(a.newDocUploadCommand())
	doc.AddCommand(a.newDocListCommand())
	doc.AddCommand(a.newDocRemoveCommand())
	doc.AddCommand(a.newDocRunCommand())
	doc.AddCommand(a.newDocDownloadCommand())
	return doc
}

func (a *App) newDocUploadCommand() *cobra.Command {
	var kbID string

	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload files into a knowledge base",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if kbID == "" {
				return exitWithCode(ExitValidation, fmt.Errorf("knowledge base required: use --kb"))
			}

			files := make([]core.FilePart, 0, len(args))
			handles := make([]*os.File, 0, len(args))
			defer func() {
				for _, f := range handles {
					f.Close()
				}
			}()
			for _, path := range args {
				f, err := os.Open(path)
				if err != nil {
					return exitWithCode(ExitValidation, err)
				}
				handles = append(handles, f)
				files = append(files, core.FilePart{Name: filepath.Base(path), Reader: f})
			}

			svc, closer, err := a.newService(a.cfg)
			if err != nil {
				return exitWithCode(ExitValidation, err)
			}
			if closer != nil {
				defer closer()
			}

			docs, err := svc.UploadDocuments(cmd.Context(), kbID, files, nil)
			if err != nil {
				return a.handleAPIError(err)
			}
			for _, d := range docs {
				fmt.Fprintf(a.stdout, "Uploaded %s (%s).\n", d.Name, d.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&kbID, "kb", "", "knowledge base ID (required)")
	_ = cmd.MarkFlagRequired("kb")
	return cmd
}

func (a *App) newDocListCommand() *cobra.Command {
	var kbID string
	var page, pageSize int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List documents in a knowledge base",
		RunE: func(cmd *cobra.Command, args []string) error {
			if kbID == "" {
				return exitWithCode(ExitValidation, fmt.Errorf("knowledge base required: use --kb"))
			}

			svc, closer, err := a.newService(a.cfg)
			if err != nil {
				return exitWithCode(ExitValidation, err)
			}
			if closer != nil {
				defer closer()
			}

			docs, total, err := svc.ListDocuments(cmd.Context(), kbID, api.Page{Page: page, PageSize: pageSize})
			if err != nil {
				return a.handleAPIError(err)
			}
			if len(docs) == 0 {
				fmt.Fprintln(a.stdout, "No documents.")
				return nil
			}
			for _, d := range docs {
				fmt.Fprintf(a.stdout, "%s  %s  run=%s  %.0f%%\n", d.ID, d.Name, d.Run, d.Progress*100)
			}
			fmt.Fprintf(a.stdout, "%d total.\n", total)
			return nil
		},
	}

	cmd.Flags().StringVar(&kbID, "kb", "", "knowledge base ID (required)")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 30, "items per page")
	_ = cmd.MarkFlagRequired("kb")
	return cmd
}

func (a *App) newDocRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>...",
		Short: "Delete documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closer, err := a.newService(a.cfg)
			if err != nil {
				return exitWithCode(ExitValidation, err)
			}
			if closer != nil {
				defer closer()
			}

			if err := svc.RemoveDocuments(cmd.Context(), args); err != nil {
				return a.handleAPIError(err)
			}
			fmt.Fprintf(a.stdout, "Removed %d document(s).\n", len(args))
			return nil
		},
	}
}

func (a *App) newDocRunCommand() *cobra.Command {
	var cancel bool

	cmd := &cobra.Command{
		Use:   "run <id>...",
		Short: "Start (or cancel) chunk parsing for documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closer, err := a.newService(a.cfg)
			if err != nil {
				return exitWithCode(ExitValidation, err)
			}
			if closer != nil {
				defer closer()
			}

			run := api.RunStart
			if cancel {
				run = api.RunCancel
			}
			if err := svc.RunDocuments(cmd.Context(), args, run); err != nil {
				return a.handleAPIError(err)
			}
			if cancel {
				fmt.Fprintf(a.stdout, "Cancelled parsing for %d document(s).\n", len(args))
			} else {
				fmt.Fprintf(a.stdout, "Parsing started for %d document(s).\n", len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&cancel, "cancel", false, "cancel a running parse instead of starting one")
	return cmd
}

func (a *App) newDocDownloadCommand() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Download a document's original file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closer, err := a.newService(a.cfg)
			if err != nil {
				return exitWithCode(ExitValidation, err)
			}
			if closer != nil {
				defer closer()
			}

			dl, err := svc.DownloadDocument(cmd.Context(), args[0], "")
			if err != nil {
				return a.handleAPIError(err)
			}
			path, err := dl.SaveTo(outDir)
			if err != nil {
				return exitWithCode(ExitAPI, err)
			}
			fmt.Fprintf(a.stdout, "Saved %s.\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out", ".", "output directory")
	return cmd
}
