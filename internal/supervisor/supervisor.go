// Package supervisor wires the transport, bridge, classifiers, and workflow
// handlers together and runs the controller loop.
package supervisor

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"supervisor/internal/bridge"
	"supervisor/internal/classify"
	"supervisor/internal/events"
	"supervisor/internal/llm"
	"supervisor/internal/logging"
	"supervisor/internal/metrics"
	"supervisor/internal/pending"
	"supervisor/internal/prompts"
	"supervisor/internal/transport"
	"supervisor/internal/web"
	"supervisor/internal/workflow"
)

// Config holds the endpoints the supervisor binds or dials.
type Config struct {
	// ExecutorAddr is the TCP listen address for the executor channel.
	ExecutorAddr string
	// BridgeURL is the WebSocket endpoint of the UI bridge.
	BridgeURL string
	// PromptsPath optionally overrides the embedded prompts file.
	PromptsPath string
	// MetricsAddr exposes /metrics when non-empty.
	MetricsAddr string
}

type userEvent struct {
	Text string
}

// Supervisor owns the controller loop. Workflow state is mutated only under
// dispatchMu, which serializes executor-reply handlers (emitter thread) with
// user-input handlers (loop thread).
type Supervisor struct {
	cfg    Config
	llm    llm.Client
	logger logging.Logger

	emitter    *events.Emitter
	socket     *transport.Server
	bridge     *bridge.Client
	pending    *pending.Queue
	tabs       *workflow.Tabs
	dispatcher *workflow.Dispatcher

	userQ      chan userEvent
	dispatchMu sync.Mutex
}

// New builds a fully wired supervisor around the given inference client.
func New(cfg Config, client llm.Client) (*Supervisor, error) {
	logger := logging.NewComponentLogger("supervisor")

	set, err := prompts.Load(cfg.PromptsPath)
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}

	emitter := events.NewEmitter(logging.NewComponentLogger("emitter"))
	s := &Supervisor{
		cfg:        cfg,
		llm:        client,
		logger:     logger,
		emitter:    emitter,
		socket:     transport.NewServer(cfg.ExecutorAddr, emitter, logging.NewComponentLogger("transport")),
		pending:    pending.NewQueue(emitter),
		tabs:       workflow.NewTabs(),
		dispatcher: workflow.NewDispatcher(logging.NewComponentLogger("dispatcher")),
		userQ:      make(chan userEvent, 64),
	}
	s.bridge = bridge.New(cfg.BridgeURL, s.onBridgeMessage, logging.NewComponentLogger("bridge"))

	handlers := workflow.NewHandlers(context.Background(), workflow.Config{
		LLM:     client,
		Prompts: set,
		Coder:   s.socket,
		Bridge:  s.bridge,
		Pending: s.pending,
		Tabs:    s.tabs,
		Router:  classify.NewRouter(client, set, logging.NewComponentLogger("router")),
		Intents: classify.NewIntentClassifier(client, set, logging.NewComponentLogger("intent")),
		Fetcher: web.NewFetcher(logging.NewComponentLogger("web")),
		Logger:  logging.NewComponentLogger("workflow"),
	})
	handlers.Register(s.dispatcher)

	emitter.On(transport.TopicCoderMessage, s.onCoderMessage)
	emitter.On(pending.TopicPendingAdded, func(v any) {
		if item, ok := v.(*pending.Action); ok {
			logger.Info("pending %s queued for tab %d", item.Type, item.TabID)
		}
	})

	return s, nil
}

// Tabs exposes the workflow scopes, mainly for tests and status output.
func (s *Supervisor) Tabs() *workflow.Tabs { return s.tabs }

func (s *Supervisor) onCoderMessage(v any) {
	reply, ok := v.(*transport.Reply)
	if !ok {
		return
	}
	s.dispatch(workflow.FromReply(reply))
}

func (s *Supervisor) dispatch(ev *workflow.Event) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	s.dispatcher.Dispatch(ev)
}

// onBridgeMessage normalizes one inbound UI frame. Chat-like types feed the
// user queue; reset is handled immediately; anything unknown is echoed back.
func (s *Supervisor) onBridgeMessage(msg map[string]any) {
	mtype, _ := msg["type"].(string)
	text, _ := msg["text"].(string)
	mtype = strings.ToLower(strings.TrimSpace(mtype))
	text = strings.TrimSpace(text)

	switch mtype {
	case bridge.InboundChat, bridge.InboundUserInput, bridge.InboundInput,
		bridge.InboundPrompt, bridge.InboundPendingResponse:
		if text == "" {
			return
		}
		select {
		case s.userQ <- userEvent{Text: text}:
		default:
			s.logger.Warn("user queue full, dropping input")
		}

	case bridge.InboundReset:
		s.llm.Reset()
		s.bridge.Send(bridge.Message{Type: bridge.TypeSystem, Text: "LLM memory reset"})

	default:
		s.bridge.Send(bridge.Message{
			Type: bridge.TypeSupervisorLog,
			Text: fmt.Sprintf("ignored message: %v", msg),
		})
	}
}

// Run blocks in the controller loop until an exit command or ctx
// cancellation. Pending approvals are flushed before normal input: exactly
// one pending_request is outstanding at a time, in FIFO order.
func (s *Supervisor) Run(ctx context.Context) error {
	if err := s.llm.Load(ctx); err != nil {
		return fmt.Errorf("load LLM backend: %w", err)
	}
	if err := s.socket.Start(); err != nil {
		return fmt.Errorf("start executor listener: %w", err)
	}
	s.bridge.Start()
	if s.cfg.MetricsAddr != "" {
		metrics.Serve(s.cfg.MetricsAddr, s.logger)
	}
	defer s.shutdown()

	s.logger.Info("supervisor running")

	for {
		if s.pending.HasPending() {
			p := s.pending.Pop()
			s.bridge.Send(bridge.Message{
				Type:  bridge.TypePendingRequest,
				Text:  p.Msg.Response,
				TabID: p.TabID,
			})

			ev, ok := s.waitUser(ctx)
			if !ok {
				return ctx.Err()
			}
			s.dispatch(&workflow.Event{
				Action:  workflow.ActionUserInputPending,
				Text:    ev.Text,
				Pending: p,
			})
			continue
		}

		select {
		case ev := <-s.userQ:
			switch strings.ToLower(ev.Text) {
			case "exit":
				s.logger.Info("exit requested")
				return nil
			case "reset":
				s.llm.Reset()
				s.bridge.Send(bridge.Message{Type: bridge.TypeSystem, Text: "LLM memory reset"})
				continue
			}
			s.dispatch(&workflow.Event{
				Action: workflow.ActionUserInputNormal,
				Text:   ev.Text,
			})

		case <-s.pending.Notify():
			// Loop around to flush the new pending before more input.

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// waitUser blocks for the next user input only; pendings queue behind the
// one already being prompted.
func (s *Supervisor) waitUser(ctx context.Context) (userEvent, bool) {
	select {
	case ev := <-s.userQ:
		return ev, true
	case <-ctx.Done():
		return userEvent{}, false
	}
}

func (s *Supervisor) shutdown() {
	s.bridge.Stop()
	if err := s.socket.Close(); err != nil {
		s.logger.Warn("close executor listener: %v", err)
	}
	s.logger.Info("supervisor stopped")
}
