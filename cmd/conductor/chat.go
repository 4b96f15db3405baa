package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session with the assistant",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context())
		},
	}
}

// runChat is a plain stdin/stdout REPL over the orchestrator's main loop.
// Each line the operator types becomes one OnUserMessage call; assistant
// text streams back as it arrives via onTextDelta.
func runChat(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	b, err := newBootstrap(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	fmt.Println("conductor chat. Ctrl-D or Ctrl-C to exit.")
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if line == "" {
			continue
		}

		onDelta := func(fragment string) {
			fmt.Print(fragment)
		}
		if _, err := b.orchestrator.OnUserMessage(ctx, line, onDelta); err != nil {
			fmt.Fprintf(os.Stderr, "\nerror: %v\n", err)
			continue
		}
		fmt.Println()
	}
	return scanner.Err()
}
