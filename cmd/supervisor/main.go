package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"supervisor/internal/llm"
	"supervisor/internal/logging"
	"supervisor/internal/supervisor"
)

var (
	cyan = color.New(color.FgCyan).SprintFunc()
	gray = color.New(color.FgHiBlack).SprintFunc()
	bold = color.New(color.Bold).SprintFunc()
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "supervisor",
		Short: "LLM-driven controller between a UI bridge and a coding executor",
		Long: `Supervisor listens for a coding executor over TCP, connects to the UI
bridge over WebSocket, and drives repository training workflows through a
local language model.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSupervisor(cmd)
		},
	}

	flags := rootCmd.Flags()
	flags.String("listen", "0.0.0.0:9002", "TCP listen address for the executor")
	flags.String("bridge-url", "ws://127.0.0.1:9013/ws/supervisor", "WebSocket URL of the UI bridge")
	flags.String("prompts", "", "Path to a prompts YAML file overriding the built-in prompts")
	flags.String("llm-base-url", "http://localhost:11434", "Base URL of the Ollama-compatible API")
	flags.String("llm-model", "qwen2.5:7b", "Model name served by the LLM backend")
	flags.Duration("llm-timeout", 120*time.Second, "Per-request LLM timeout")
	flags.String("metrics-listen", "", "Prometheus /metrics listen address (disabled when empty)")
	flags.BoolP("debug", "d", false, "Enable debug logging")

	viper.SetEnvPrefix("SUPERVISOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if err := viper.BindPFlags(flags); err != nil {
		panic(err)
	}

	return rootCmd
}

func runSupervisor(cmd *cobra.Command) error {
	if viper.GetBool("debug") {
		logging.SetLevel(logging.DEBUG)
	}
	defer func() { _ = logging.Close() }()

	cfg := supervisor.Config{
		ExecutorAddr: viper.GetString("listen"),
		BridgeURL:    viper.GetString("bridge-url"),
		PromptsPath:  viper.GetString("prompts"),
		MetricsAddr:  viper.GetString("metrics-listen"),
	}

	client := llm.NewOllamaClient(viper.GetString("llm-model"), llm.Config{
		BaseURL: viper.GetString("llm-base-url"),
		Timeout: viper.GetDuration("llm-timeout"),
	})

	sup, err := supervisor.New(cfg, client)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", bold(cyan("supervisor")), gray("starting"))
	fmt.Fprintf(cmd.OutOrStdout(), "  executor  %s\n", cfg.ExecutorAddr)
	fmt.Fprintf(cmd.OutOrStdout(), "  bridge    %s\n", cfg.BridgeURL)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sup.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("supervisor: %v", err))
		os.Exit(1)
	}
}
