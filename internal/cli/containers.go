package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"nexusctl/internal/render"

	"github.com/spf13/cobra"
)

func newContainersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "containers",
		Aliases: []string{"pods"},
		Short:   "Manage backend containers",
	}
	cmd.AddCommand(newContainersListCmd())
	cmd.AddCommand(newContainerActionCmd("start", "Start a container"))
	cmd.AddCommand(newContainerActionCmd("stop", "Stop a container"))
	cmd.AddCommand(newContainerActionCmd("restart", "Restart a container"))
	cmd.AddCommand(newContainersLogsCmd())
	return cmd
}

func newContainersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List containers and their status",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			resp, err := a.api.Containers(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSTATUS\tIMAGE\tPORTS")
			for _, c := range resp.Containers {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Name, render.StatusBadge(c.Status), c.Image, c.Ports)
			}
			w.Flush()
			fmt.Printf("\n%d containers\n", resp.Total)
			return nil
		},
	}
}

func newContainerActionCmd(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <name>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			name := args[0]
			switch action {
			case "start":
				err = a.api.StartContainer(cmd.Context(), name)
			case "stop":
				err = a.api.StopContainer(cmd.Context(), name)
			case "restart":
				err = a.api.RestartContainer(cmd.Context(), name)
			}
			if err != nil {
				return err
			}
			fmt.Printf("%s %s: %s\n", action, name, render.OKStyle.Render("ok"))
			return nil
		},
	}
}

func newContainersLogsCmd() *cobra.Command {
	var tail int

	cmd := &cobra.Command{
		Use:   "logs <name>",
		Short: "Show recent container logs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			logs, err := a.api.ContainerLogs(cmd.Context(), args[0], tail)
			if err != nil {
				return err
			}
			fmt.Println(logs)
			return nil
		},
	}

	cmd.Flags().IntVar(&tail, "tail", 50, "Number of trailing log lines")
	return cmd
}
