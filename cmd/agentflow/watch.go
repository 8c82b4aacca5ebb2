package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/agenthands/agentflow/internal/api"
	"github.com/agenthands/agentflow/internal/chat"
	"github.com/agenthands/agentflow/internal/config"
	"github.com/agenthands/agentflow/internal/graph"
	"github.com/agenthands/agentflow/internal/model"
	"github.com/agenthands/agentflow/internal/session"
	"github.com/agenthands/agentflow/internal/stream"
	"github.com/agenthands/agentflow/internal/tui"
)

const historyLimit = 50

func newWatchCmd() *cobra.Command {
	var ownerID string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Open the live agent graph console",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ownerID == "" {
				ownerID = os.Getenv("OWNER_ID")
			}
			if ownerID == "" {
				ownerID = uuid.NewString()
				log.Printf("No owner id given, generated %s", ownerID)
			}
			return runWatch(cmd.Context(), loadConfig(), ownerID)
		},
	}
	cmd.Flags().StringVar(&ownerID, "owner", "", "owner/viewer id (default OWNER_ID env or a fresh uuid)")
	return cmd
}

func runWatch(ctx context.Context, cfg *config.Config, ownerID string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	apiClient := api.NewClient(cfg.Backend.URL)
	engine := graph.NewEngine(ownerID, layoutConfig(cfg))
	sess := session.NewContext()

	// Producer goroutines push here; the program loop drains one message
	// per Update. The buffer absorbs event bursts between frames.
	updates := make(chan tea.Msg, 256)

	engine.OnSnapshot(func(s graph.Snapshot) { updates <- tui.SnapshotMsg(s) })

	// Initial directory fetch before the stream takes over.
	agents, err := apiClient.ListAgents(ctx, api.ListParams{OwnerID: ownerID})
	if err != nil {
		log.Printf("Initial agent list failed, starting empty: %v", err)
	}
	engine.LoadSnapshot(agents)

	sub := subscribeStream(ctx, cfg, ownerID, engine, updates)
	defer func() {
		sub.Close()
		<-sub.Done()
	}()

	// Selecting an agent hydrates its stored transcript.
	sess.Subscribe(func(sel session.Selection) {
		if sel.AgentID == "" {
			return
		}
		go func(agentID string) {
			messages, err := apiClient.ListMessages(ctx, agentID, api.MessageParams{Limit: historyLimit})
			if err != nil {
				log.Printf("History fetch for %s failed: %v", agentID, err)
				return
			}
			updates <- tui.HistoryMsg{AgentID: agentID, Messages: messages}
		}(sel.AgentID)
	})

	sessionID := uuid.NewString()
	deps := tui.Deps{
		ViewerID: ownerID,
		Updates:  updates,
		Session:  sess,
		Engine:   engine,
		StartTurn: func(agentID, input string) string {
			turnID := uuid.NewString()
			go runTurn(ctx, apiClient, updates, turnParams{
				agentID:   agentID,
				ownerID:   ownerID,
				sessionID: sessionID,
				turnID:    turnID,
				input:     input,
			})
			return turnID
		},
	}

	program := tea.NewProgram(tui.NewModel(deps), tea.WithAltScreen())
	_, err = program.Run()
	return err
}

// subscribeStream opens the reconnecting event stream and routes events
// into the engine. Connection state changes surface in the console header.
func subscribeStream(ctx context.Context, cfg *config.Config, ownerID string, engine *graph.Engine, updates chan<- tea.Msg) *stream.Subscription {
	client := stream.NewClient(cfg.Backend.URL)
	client.Retry = stream.RetryPolicy{
		InitialDelay: time.Duration(cfg.Retry.InitialDelayMS) * time.Millisecond,
		Factor:       cfg.Retry.Factor,
		MaxDelay:     time.Duration(cfg.Retry.MaxDelayMS) * time.Millisecond,
	}

	markUp := func() { updates <- tui.ConnStateMsg{Connected: true} }

	return client.Subscribe(ctx, ownerID, stream.Handlers{
		OnAdd: func(a model.Agent) {
			markUp()
			engine.ApplyAdd(a)
		},
		OnRemove: func(id string) {
			markUp()
			engine.ApplyRemove(id)
		},
		OnUpdate: func(a model.Agent) {
			markUp()
			engine.ApplyUpdate(a)
		},
		OnStatus: func(ev stream.StatusEvent) {
			markUp()
			engine.ApplyStatus(ev.AgentID, ev.Status, ev.Timestamp)
		},
		OnProgress: func(ev stream.ProgressEvent) {
			markUp()
			engine.ApplyProgress(ev.AgentID, ev.Progress, ev.Step, ev.Timestamp)
		},
		OnDecision: func(ev stream.DecisionEvent) {
			markUp()
			engine.ApplyDecision(ev.AgentID, ev.Entry, ev.Timestamp)
		},
		OnError: func(err error) {
			updates <- tui.ConnStateMsg{Connected: false, Err: err}
		},
	})
}

type turnParams struct {
	agentID   string
	ownerID   string
	sessionID string
	turnID    string
	input     string
}

// runTurn persists the user message, streams the reply through the turn
// decoder, and reports progress over the updates channel.
func runTurn(ctx context.Context, client *api.Client, updates chan<- tea.Msg, p turnParams) {
	if _, err := client.PostMessage(ctx, p.agentID, api.PostMessageInput{
		SessionID: p.sessionID,
		Role:      model.RoleUser,
		Content:   p.input,
	}); err != nil {
		log.Printf("Storing user message failed: %v", err)
	}

	body, err := client.Chat(ctx, p.agentID, api.ChatRequest{
		SessionID:    p.sessionID,
		UserInput:    p.input,
		OwnerID:      p.ownerID,
		OwnerAgentID: p.ownerID,
	})
	if err != nil {
		updates <- tui.TurnErrorMsg{TurnID: p.turnID, Body: turnErrorBody(err)}
		return
	}
	defer body.Close()

	decoder := chat.NewTurnDecoder(p.turnID, func(t chat.Turn) { updates <- tui.TurnMsg(t) })
	if err := decoder.Run(ctx, body); err != nil {
		updates <- tui.TurnErrorMsg{TurnID: p.turnID, Body: turnErrorBody(err)}
		return
	}
	updates <- tui.TurnDoneMsg{TurnID: p.turnID}
}

// turnErrorBody prefers the backend's own error text when there is one.
func turnErrorBody(err error) string {
	var statusErr *api.StatusError
	if errors.As(err, &statusErr) && statusErr.Body != "" {
		return statusErr.Body
	}
	return err.Error()
}

func layoutConfig(cfg *config.Config) graph.LayoutConfig {
	lc := graph.DefaultLayoutConfig()
	lc.BaseRadius = cfg.Layout.BaseRadius
	lc.DeltaRadius = cfg.Layout.DeltaRadius
	lc.SlotsPerRing = cfg.Layout.SlotsPerRing
	lc.ChildRadius = cfg.Layout.ChildRadius
	return lc
}
