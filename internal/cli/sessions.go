package cli

import (
	"fmt"

	"nexusctl/internal/render"
	"nexusctl/internal/session"

	"github.com/spf13/cobra"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage archived chat sessions",
	}
	cmd.AddCommand(newSessionsListCmd())
	cmd.AddCommand(newSessionsShowCmd())
	cmd.AddCommand(newSessionsDeleteCmd())
	return cmd
}

func newSessionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			archive, err := session.NewClient(a.cfg.APIBase, nil, a.logger)
			if err != nil {
				return err
			}
			if err := archive.Refresh(cmd.Context()); err != nil {
				return err
			}

			sessions := archive.Sessions()
			if len(sessions) == 0 {
				fmt.Println("No saved sessions.")
				return nil
			}
			fmt.Println(render.HeaderStyle.Render("Saved Sessions"))
			for _, s := range sessions {
				fmt.Printf("%s  %s  %s  (%d messages)\n",
					render.IDStyle.Render(s.ID), s.Name, render.DimStyle.Render(s.CreatedAt), s.MessageCount)
			}
			return nil
		},
	}
}

func newSessionsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print the messages of a saved session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			archive, err := session.NewClient(a.cfg.APIBase, nil, a.logger)
			if err != nil {
				return err
			}
			messages, err := archive.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, m := range messages {
				switch m.Role {
				case session.RoleUser:
					fmt.Printf("You: %s\n", m.Content)
				case session.RoleAssistant:
					fmt.Printf("Agent: %s\n", m.Content)
				default:
					fmt.Printf("[%s] %s\n", m.Role, m.Content)
				}
			}
			return nil
		},
	}
}

func newSessionsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a saved session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			archive, err := session.NewClient(a.cfg.APIBase, nil, a.logger)
			if err != nil {
				return err
			}
			if err := archive.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted session %s\n", args[0])
			return nil
		},
	}
}
