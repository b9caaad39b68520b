package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"nexusctl/internal/render"

	"github.com/spf13/cobra"
)

func newWorkflowsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflows",
		Short: "Manage automation workflows",
	}
	cmd.AddCommand(newWorkflowsListCmd())
	cmd.AddCommand(newWorkflowsTriggerCmd())
	cmd.AddCommand(newWorkflowsActivateCmd(true))
	cmd.AddCommand(newWorkflowsActivateCmd(false))
	return cmd
}

func newWorkflowsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List workflows",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			workflows, err := a.api.Workflows(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tACTIVE\tUPDATED")
			for _, wf := range workflows {
				active := render.DimStyle.Render("no")
				if wf.Active {
					active = render.OKStyle.Render("yes")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", wf.ID, wf.Name, active, wf.UpdatedAt)
			}
			return w.Flush()
		},
	}
}

func newWorkflowsTriggerCmd() *cobra.Command {
	var payloadJSON string

	cmd := &cobra.Command{
		Use:   "trigger <webhook-path>",
		Short: "Fire a workflow's webhook trigger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			var payload map[string]interface{}
			if payloadJSON != "" {
				if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
					return fmt.Errorf("invalid payload JSON: %w", err)
				}
			}

			result, err := a.api.TriggerWebhook(cmd.Context(), args[0], payload)
			if err != nil {
				return err
			}
			fmt.Println(string(result))
			return nil
		},
	}

	cmd.Flags().StringVar(&payloadJSON, "payload", "", "JSON payload to send with the trigger")
	return cmd
}

func newWorkflowsActivateCmd(activate bool) *cobra.Command {
	verb, short := "activate", "Activate a workflow"
	if !activate {
		verb, short = "deactivate", "Deactivate a workflow"
	}
	return &cobra.Command{
		Use:   verb + " <workflow-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if activate {
				err = a.api.ActivateWorkflow(cmd.Context(), args[0])
			} else {
				err = a.api.DeactivateWorkflow(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			fmt.Printf("%s %s: %s\n", verb, args[0], render.OKStyle.Render("ok"))
			return nil
		},
	}
}
