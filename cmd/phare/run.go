package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"phare-hq/phare/pkg/client"
	"phare-hq/phare/pkg/instrument/agentkit"
	"phare-hq/phare/pkg/tracing"
)

var runFlags struct {
	hold bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a demo agent through the full pipeline",
	Long: `Initialize the SDK and drive a scripted demo agent through the
instrumented pipeline: a session trace, one agent run, one model call
with token usage, and one tool call.

This exercises the tracing core, exporter, metrics, pricing, and usage
ledger end to end against a live configuration. With --hold the process
stays up afterwards so the metrics endpoint can be scraped.

Examples:
  # One demo conversation, then exit
  phare run --config phare.yaml

  # Keep serving metrics until interrupted
  phare run --config phare.yaml --hold`,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runFlags.hold, "hold", false, "stay up after the demo until interrupted")
}

// demoRunner emits a short scripted event stream.
type demoRunner struct{}

type demoEventStream struct {
	events []*agentkit.Event
	pos    int
}

func (s *demoEventStream) Recv() (*agentkit.Event, error) {
	if s.pos >= len(s.events) {
		return nil, io.EOF
	}
	ev := s.events[s.pos]
	s.pos++
	return ev, nil
}

func (demoRunner) Run(ctx context.Context, inv *agentkit.Invocation) (agentkit.EventStream, error) {
	return &demoEventStream{events: []*agentkit.Event{
		{Type: "thought", Content: "looking up the benefits schedule"},
		{Type: "message", Content: "Your renewal appointment is on Tuesday."},
	}}, nil
}

// demoModel returns two chunks, the second carrying token usage.
type demoModel struct{}

type demoChunkStream struct {
	chunks []*agentkit.Chunk
	pos    int
}

func (s *demoChunkStream) Recv() (*agentkit.Chunk, error) {
	if s.pos >= len(s.chunks) {
		return nil, io.EOF
	}
	ch := s.chunks[s.pos]
	s.pos++
	return ch, nil
}

func (demoModel) CallModel(ctx context.Context, req *agentkit.ModelRequest) (agentkit.ChunkStream, error) {
	return &demoChunkStream{chunks: []*agentkit.Chunk{
		{Content: "Your renewal appointment "},
		{Content: "is on Tuesday.", Usage: &agentkit.Usage{
			PromptTokens:     1000,
			CompletionTokens: 500,
			TotalTokens:      1500,
		}},
	}}, nil
}

func demoTool(ctx context.Context, tool agentkit.Tool, args map[string]any, tc *agentkit.ToolContext) (any, error) {
	return map[string]any{"next_appointment": "Tuesday"}, nil
}

func runDemo(cmd *cobra.Command, args []string) error {
	opts := []client.Option{}
	if cfgFile != "" {
		opts = append(opts, client.WithConfigFile(cfgFile))
	}

	c, err := client.Init(opts...)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		c.Shutdown(ctx)
	}()

	if c.Manager() == nil {
		return fmt.Errorf("telemetry pipeline is degraded, nothing to demo")
	}

	// The demo surface registers under the runtime pseudo-module so the
	// installed-copy check always passes.
	surface := &agentkit.Surface{
		Runner: demoRunner{},
		Model:  demoModel{},
		Tool:   demoTool,
	}
	c.Manager().RegisterAgenticLibrary(agentkit.Loader(surface, "go", ""))
	c.Manager().OnLoad("go")

	ctx := context.Background()
	session := c.Session()
	if session == nil {
		session, err = c.StartSession(ctx, "demo-session")
		if err != nil {
			return fmt.Errorf("failed to start session: %w", err)
		}
	}

	fmt.Println("=== Agent run ===")
	events, err := surface.Runner.Run(ctx, &agentkit.Invocation{
		Agent: "demo-agent",
		Input: "When is my renewal appointment?",
	})
	if err != nil {
		return fmt.Errorf("agent run failed: %w", err)
	}
	for {
		ev, err := events.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("event stream failed: %w", err)
		}
		fmt.Printf("  [%s] %s\n", ev.Type, ev.Content)
	}

	fmt.Println("=== Model call ===")
	chunks, err := surface.Model.CallModel(ctx, &agentkit.ModelRequest{Model: "gemini-2.5-flash"})
	if err != nil {
		return fmt.Errorf("model call failed: %w", err)
	}
	for {
		ch, err := chunks.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("chunk stream failed: %w", err)
		}
		fmt.Printf("  %s", ch.Content)
	}
	fmt.Println()

	fmt.Println("=== Tool call ===")
	result, err := surface.Tool(ctx, agentkit.Tool{Name: "appointment-lookup"}, nil, &agentkit.ToolContext{Agent: "demo-agent"})
	if err != nil {
		return fmt.Errorf("tool call failed: %w", err)
	}
	fmt.Printf("  result: %v\n", result)

	if ledger := c.Usage(); ledger != nil {
		totals, err := ledger.TotalsSince(ctx, time.Now().Add(-time.Minute))
		if err == nil {
			fmt.Printf("Recorded %d calls, %d tokens, $%.6f\n",
				totals.Records, totals.PromptTokens+totals.CompletionTokens, totals.CostUSD)
		}
	}

	c.EndSession(session, tracing.EndStateSuccess)

	if runFlags.hold {
		fmt.Println("Holding for metrics scrapes; interrupt to exit.")
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		<-ch
	}

	return c.Flush(context.Background())
}
