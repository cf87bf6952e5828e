// Command agentcore-demo runs a scripted conversation through
// pkg/agentcore for manual smoke-testing, grounded on the teacher's
// cmd/nexus entrypoint style (flag-light cobra root + subcommands) but
// reduced to the one thing this core needs to demonstrate: driving a
// Run/RunStreamed call end to end against either a live provider or the
// bundled mock script.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/orchestrator-core/internal/agentdef"
	"github.com/haasonsaas/orchestrator-core/internal/provider/anthropic"
	"github.com/haasonsaas/orchestrator-core/internal/provider/mock"
	"github.com/haasonsaas/orchestrator-core/internal/tracing"
	"github.com/haasonsaas/orchestrator-core/pkg/agentcore"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		manifestPath string
		message      string
		useMock      bool
		jsonTrace    string
	)

	root := &cobra.Command{
		Use:   "agentcore-demo",
		Short: "Run one message through an agentcore.Agent fleet defined in a YAML manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), manifestPath, message, useMock, jsonTrace)
		},
	}

	root.Flags().StringVar(&manifestPath, "manifest", "", "path to a YAML agent manifest (required)")
	root.Flags().StringVar(&message, "message", "hello", "user message to send to the default agent")
	root.Flags().BoolVar(&useMock, "mock", true, "use the bundled scripted mock provider instead of a live model")
	root.Flags().StringVar(&jsonTrace, "trace-out", "", "optional path to write a JSONL trace file")
	_ = root.MarkFlagRequired("manifest")

	return root
}

func run(ctx context.Context, manifestPath, message string, useMock bool, jsonTrace string) error {
	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}
	manifest, err := agentdef.Parse(raw)
	if err != nil {
		return err
	}
	startingAgent, _, err := agentdef.Build(manifest, nil)
	if err != nil {
		return err
	}

	provider, err := resolveProvider(useMock)
	if err != nil {
		return err
	}

	opts := []agentcore.RunnerOption{
		agentcore.WithProvider(provider),
		agentcore.WithWorkflowName("agentcore-demo"),
		agentcore.WithLogger(agentcore.NewLoggerFromEnv()),
	}

	var traceFile *os.File
	if jsonTrace != "" {
		traceFile, err = os.Create(jsonTrace)
		if err != nil {
			return fmt.Errorf("create trace file: %w", err)
		}
		defer traceFile.Close()
		opts = append(opts, agentcore.WithTraceProcessors(tracing.NewJSONLProcessor(traceFile)))
	}

	result, err := agentcore.Run(ctx, startingAgent, []agentcore.Message{
		agentcore.NewMessage(agentcore.RoleUser, message),
	}, opts...)
	if err != nil {
		return err
	}

	fmt.Printf("final agent: %s\n", result.LastAgent.Name)
	fmt.Printf("turns: %d  elapsed: %s\n", result.Turns, result.EndedAt.Sub(result.StartedAt))
	fmt.Printf("output: %s\n", result.FinalOutput)
	return nil
}

func resolveProvider(useMock bool) (agentcore.ModelProvider, error) {
	if useMock {
		return mock.New(
			mock.Turn{Text: "Hello from the scripted demo provider."},
		), nil
	}

	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY must be set when --mock=false")
	}
	return anthropic.New(anthropic.Config{APIKey: apiKey})
}

