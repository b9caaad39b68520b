package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Submit and inspect image generation jobs",
	}
	cmd.AddCommand(newGenerateSubmitCmd())
	cmd.AddCommand(newGenerateQueueCmd())
	cmd.AddCommand(newGenerateHistoryCmd())
	return cmd
}

func newGenerateSubmitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "submit <workflow.json>",
		Short: "Submit a workflow graph for generation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read workflow file: %w", err)
			}
			if !json.Valid(raw) {
				return fmt.Errorf("workflow file %s is not valid JSON", args[0])
			}

			resp, err := a.api.ComfyPrompt(cmd.Context(), raw, uuid.NewString())
			if err != nil {
				return err
			}
			fmt.Printf("prompt accepted: %s (queue position %d)\n", resp.PromptID, resp.Number)
			return nil
		},
	}
}

func newGenerateQueueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "queue",
		Short: "Show generation queue depth",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			q, err := a.api.ComfyQueue(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("running: %d\npending: %d\n", q.Running, q.Pending)
			return nil
		},
	}
}

func newGenerateHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <prompt-id>",
		Short: "List images produced for a prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			images, err := a.api.ComfyHistory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(images) == 0 {
				fmt.Println("no images yet")
				return nil
			}
			for _, img := range images {
				if img.Subfolder != "" {
					fmt.Printf("%s/%s\n", img.Subfolder, img.Filename)
					continue
				}
				fmt.Println(img.Filename)
			}
			return nil
		},
	}
}
