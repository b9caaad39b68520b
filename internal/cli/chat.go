package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"nexusctl/internal/agent"
	"nexusctl/internal/render"
	"nexusctl/internal/session"
	"nexusctl/internal/store"
	"nexusctl/internal/telemetry"

	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	var model string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat with the agent swarm",
		Long: "Opens a REPL over the agent's WebSocket channel. Replies stream token\n" +
			"by token; when the channel is down, requests fall back to a one-shot\n" +
			"HTTP call. Conversations can be saved to and loaded from the backend's\n" +
			"session archive with slash commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			// Flag wins, then the persisted choice, then the config default.
			if model == "" {
				model, err = st.Setting("model", a.cfg.Model)
				if err != nil {
					return err
				}
			}
			return runChat(a, st, model)
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "Model identifier for tasks (default from config)")
	return cmd
}

// chatPrinter echoes streamed tokens to the terminal as they land in the
// relay. It tracks how much of the in-progress message has been printed so
// each update writes only the delta.
type chatPrinter struct {
	relay *agent.Relay

	mu        sync.Mutex
	streaming bool
	printed   int
	updates   chan struct{}
}

func newChatPrinter(updates chan struct{}) *chatPrinter {
	return &chatPrinter{updates: updates}
}

func (p *chatPrinter) update() {
	p.mu.Lock()
	msgs := p.relay.Messages()
	if n := len(msgs); n > 0 {
		last := msgs[n-1]
		if last.Role == session.RoleAssistant {
			switch {
			case last.InProgress:
				if !p.streaming {
					fmt.Print("Agent: ")
					p.streaming = true
					p.printed = 0
				}
				if len(last.Content) > p.printed {
					fmt.Print(last.Content[p.printed:])
					p.printed = len(last.Content)
				}
			case p.streaming:
				if len(last.Content) > p.printed {
					fmt.Print(last.Content[p.printed:])
					p.printed = len(last.Content)
				}
				fmt.Println()
				fmt.Println()
				p.streaming = false
			}
		}
	}
	p.mu.Unlock()

	select {
	case p.updates <- struct{}{}:
	default:
	}
}

// streamedTurn reports whether the printer echoed the current turn already.
func (p *chatPrinter) streamedTurn() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.streaming || p.printed > 0
}

func (p *chatPrinter) resetTurn() {
	p.mu.Lock()
	p.streaming = false
	p.printed = 0
	p.mu.Unlock()
}

func runChat(a *app, st *store.Store, model string) error {
	ctx := context.Background()

	_, meter, cleanup, err := telemetry.InitTelemetry(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	archive, err := session.NewClient(a.cfg.APIBase, nil, a.logger)
	if err != nil {
		return err
	}
	fallback, err := agent.NewHTTPFallback(a.cfg.APIBase, nil, a.logger)
	if err != nil {
		return err
	}

	updates := make(chan struct{}, 1)
	printer := newChatPrinter(updates)

	relay, err := agent.NewRelay(agent.RelayOpts{
		Fallback: fallback,
		Sessions: archive,
		Logger:   a.logger,
		Meter:    meter,
		OnUpdate: printer.update,
	})
	if err != nil {
		return err
	}
	printer.relay = relay

	connector, err := agent.NewConnector(agent.ConnectorOpts{
		URL:     a.cfg.ChatWSURL,
		Handler: relay,
		Logger:  a.logger,
	})
	if err != nil {
		return err
	}
	relay.SetTransport(connector)
	connector.Start()
	defer connector.Close()

	if err := relay.RefreshSessions(ctx); err != nil {
		a.logger.Warn("initial session list fetch failed", "error", err)
	}

	fmt.Println(render.TitleStyle.Render("=== NEXUS Chat ==="))
	fmt.Printf("Backend: %s\n", a.cfg.APIBase)
	fmt.Printf("Model: %s\n", model)
	fmt.Println("Type /help for commands, /quit to exit")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			shouldQuit, newModel, err := handleChatCommand(ctx, relay, input, model)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				a.logger.Error("command error", "error", err)
			}
			if newModel != "" {
				model = newModel
				if err := st.SetSetting("model", model); err != nil {
					a.logger.Warn("failed to persist model choice", "error", err)
				}
			}
			if shouldQuit {
				return nil
			}
			continue
		}

		printer.resetTurn()
		if err := relay.Submit(ctx, input, model); err != nil {
			fmt.Println(render.ErrStyle.Render("Error: " + relay.LastError()))
			continue
		}

		// Wait for the streamed turn to finish.
		for relay.Processing() {
			select {
			case <-updates:
			case <-time.After(200 * time.Millisecond):
			}
		}

		if msg := relay.LastError(); msg != "" {
			fmt.Println(render.ErrStyle.Render("Error: " + msg))
			continue
		}

		// The fallback path completes without streaming; print its reply.
		if !printer.streamedTurn() {
			msgs := relay.Messages()
			if n := len(msgs); n > 0 && msgs[n-1].Role == session.RoleAssistant {
				fmt.Printf("Agent: %s\n\n", msgs[n-1].Content)
			}
		}
	}

	fmt.Println("Goodbye!")
	return nil
}

// handleChatCommand handles slash commands. It returns whether to quit and,
// for /model, the new model identifier.
func handleChatCommand(ctx context.Context, relay *agent.Relay, cmd, model string) (bool, string, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return false, "", nil
	}

	switch parts[0] {
	case "/quit", "/exit":
		return true, "", nil

	case "/clear":
		relay.Clear()
		fmt.Println("Conversation cleared.")
		return false, "", nil

	case "/model":
		if len(parts) < 2 {
			return false, "", fmt.Errorf("usage: /model <identifier>")
		}
		fmt.Printf("Model set to: %s\n", parts[1])
		return false, parts[1], nil

	case "/save":
		name := strings.TrimSpace(strings.TrimPrefix(cmd, "/save"))
		result, err := relay.SaveSession(ctx, name)
		if err != nil {
			return false, "", err
		}
		fmt.Printf("Saved session %s (%s)\n", result.SessionID, result.Name)
		return false, "", nil

	case "/sessions":
		if err := relay.RefreshSessions(ctx); err != nil {
			fmt.Println(render.DimStyle.Render("(showing cached list; refresh failed)"))
		}
		sessions := relay.Sessions()
		if len(sessions) == 0 {
			fmt.Println("No saved sessions.")
			return false, "", nil
		}
		fmt.Println("\nSaved sessions:")
		for i, s := range sessions {
			fmt.Printf("%d. %s  %s  (%d messages)\n", i+1, render.IDStyle.Render(s.ID), s.Name, s.MessageCount)
		}
		fmt.Println()
		return false, "", nil

	case "/load":
		if len(parts) < 2 {
			return false, "", fmt.Errorf("usage: /load <session-id>")
		}
		if err := relay.LoadSession(ctx, parts[1]); err != nil {
			return false, "", err
		}
		msgs := relay.Messages()
		fmt.Printf("Loaded session %s (%d messages)\n\n", parts[1], len(msgs))
		for _, m := range msgs {
			switch m.Role {
			case session.RoleUser:
				fmt.Printf("You: %s\n", m.Content)
			case session.RoleAssistant:
				fmt.Printf("Agent: %s\n", m.Content)
			}
		}
		fmt.Println()
		return false, "", nil

	case "/delete":
		if len(parts) < 2 {
			return false, "", fmt.Errorf("usage: /delete <session-id>")
		}
		if err := relay.DeleteSession(ctx, parts[1]); err != nil {
			return false, "", err
		}
		fmt.Printf("Deleted session %s\n", parts[1])
		return false, "", nil

	case "/help":
		fmt.Println("Available commands:")
		fmt.Println("  /save [name]      - Save the conversation to the archive")
		fmt.Println("  /sessions         - List saved sessions")
		fmt.Println("  /load <id>        - Load a saved session")
		fmt.Println("  /delete <id>      - Delete a saved session")
		fmt.Println("  /clear            - Clear the conversation")
		fmt.Println("  /model <id>       - Switch the task model")
		fmt.Println("  /quit, /exit      - Exit")
		return false, "", nil

	default:
		return false, "", fmt.Errorf("unknown command: %s", parts[0])
	}
}
