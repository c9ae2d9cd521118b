package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"nexusdesk/client"
	"nexusdesk/store"
	"nexusdesk/tui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "triage",
		Short: "Terminal inbox for triaging and answering customer messages",
		Long: `triage connects to a Nexus Desk server and shows the unified inbox.
Drafts are generated by the server's AI analyzer and sent through its
dispatch layer. Every action is applied locally first and rolled back
if the server rejects it.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTriage(cmd.Context(), v)
		},
	}

	cmd.Flags().String("api", "http://localhost:3000", "base URL of the Nexus Desk server")
	cmd.Flags().Duration("timeout", 45*time.Second, "per-request timeout")
	cmd.Flags().String("tone", "Professional", "initial reply tone")
	cmd.Flags().String("log-file", "", "write logs to this file instead of discarding them")

	_ = v.BindPFlags(cmd.Flags())
	v.SetEnvPrefix("TRIAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return cmd
}

func runTriage(ctx context.Context, v *viper.Viper) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if path := v.GetString("log-file"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		logger.SetOutput(f)
	} else {
		logger.SetOutput(io.Discard)
	}

	timeout := v.GetDuration("timeout")
	api := client.New(v.GetString("api"), timeout)
	s := store.New(api, logger.WithField("component", "store"))

	model := tui.New(ctx, s, tui.DefaultTones, v.GetString("tone"), timeout)
	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("running triage: %w", err)
	}
	return nil
}
