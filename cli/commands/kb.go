package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ragline/ragline/api"
)

func (a *App) newKBCommand() *cobra.Command {
	kb := &cobra.Command{
		Use:   "kb",
		Short: "Manage knowledge bases",
	}
	kb.AddCommand(a.newKBCreateCommand())
	kb.AddCommand(a.newKBListCommand())
	kb.AddCommand(a.newKBRemoveCommand())
	kb.AddCommand(a.newKBQueryCommand())
	return kb
}

func (a *App) newKBCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a knowledge base",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closer, err := a.newService(a.cfg)
			if err != nil {
				return exitWithCode(ExitValidation, err)
			}
			if closer != nil {
				defer closer()
			}

			id, err := svc.CreateKnowledgeBase(cmd.Context(), args[0])
			if err != nil {
				return a.handleAPIError(err)
			}
			fmt.Fprintf(a.stdout, "Created knowledge base %s (%s).\n", args[0], id)
			return nil
		},
	}
}

func (a *App) newKBListCommand() *cobra.Command {
	var page, pageSize int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List knowledge bases",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closer, err := a.newService(a.cfg)
			if err != nil {
				return exitWithCode(ExitValidation, err)
			}
			if closer != nil {
				defer closer()
			}

			kbs, total, err := svc.ListKnowledgeBases(cmd.Context(), api.Page{Page: page, PageSize: pageSize})
			if err != nil {
				return a.handleAPIError(err)
			}
			if len(kbs) == 0 {
				fmt.Fprintln(a.stdout, "No knowledge bases.")
				return nil
			}
			for _, kb := range kbs {
				fmt.Fprintf(a.stdout, "%s  %s  (%d docs, %d chunks)\n", kb.ID, kb.Name, kb.DocCount, kb.ChunkCount)
			}
			fmt.Fprintf(a.stdout, "%d total.\n", total)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 30, "items per page")
	return cmd
}

func (a *App) newKBRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a knowledge base and its documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closer, err := a.newService(a.cfg)
			if err != nil {
				return exitWithCode(ExitValidation, err)
			}
			if closer != nil {
				defer closer()
			}

			if err := svc.RemoveKnowledgeBase(cmd.Context(), args[0]); err != nil {
				return a.handleAPIError(err)
			}
			fmt.Fprintf(a.stdout, "Removed knowledge base %s.\n", args[0])
			return nil
		},
	}
}

func (a *App) newKBQueryCommand() *cobra.Command {
	var topK int

	cmd := &cobra.Command{
		Use:   "query <kb-id> <question>",
		Short: "Run a retrieval test against a knowledge base",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closer, err := a.newService(a.cfg)
			if err != nil {
				return exitWithCode(ExitValidation, err)
			}
			if closer != nil {
				defer closer()
			}

			chunks, total, err := svc.RetrievalTest(cmd.Context(), api.RetrievalRequest{
				KBIDs:    []string{args[0]},
				Question: args[1],
				TopK:     topK,
			})
			if err != nil {
				return a.handleAPIError(err)
			}
			for i, ch := range chunks {
				fmt.Fprintf(a.stdout, "[%d] %.3f  %s\n%s\n\n", i+1, ch.Similarity, ch.Document, ch.Content)
			}
			fmt.Fprintf(a.stdout, "%d matches.\n", total)
			return nil
		},
	}

	cmd.Flags().IntVar(&topK, "top-k", 0, "candidate pool size (0 = backend default)")
	return cmd
}
