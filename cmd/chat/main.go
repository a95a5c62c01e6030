// Command chat is a terminal client for one streaming chat conversation.
//
// Each line typed is sent as a user message and the reply is printed as it
// streams in. Ctrl-C cancels a reply in progress and exits when idle.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kbukum/chatstream/llm"
	"github.com/kbukum/chatstream/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "chat: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Logging, cfg.Name)
	log := logger.GetGlobalLogger()

	engine, err := llm.NewEngine(cfg.Provider, llm.WithLogger(log))
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	ctx, quit := context.WithCancel(context.Background())
	defer quit()

	r := newREPL(engine, os.Stdin, os.Stdout, log)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		for {
			select {
			case sig := <-sigs:
				if sig == os.Interrupt && r.Interrupt() {
					continue
				}
				quit()
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Fprintf(os.Stdout, "%s via %s (/help for commands)\n", cfg.Provider.Model, engine.Dialect().Name())
	return r.Run(ctx)
}
