package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/kbukum/chatstream/llm"
	"github.com/kbukum/chatstream/logger"
	"github.com/kbukum/chatstream/util"
)

const prompt = "> "

// chatEngine is the subset of *llm.Engine the REPL drives.
type chatEngine interface {
	Send(ctx context.Context, text string, onFragment llm.FragmentFunc) (llm.Result, error)
	Cancel() bool
	Reset() error
	Transcript() []llm.Turn
}

// repl reads one user message per line and prints the reply as it streams.
type repl struct {
	engine chatEngine
	in     io.Reader
	out    io.Writer
	log    *logger.Logger
}

func newREPL(engine chatEngine, in io.Reader, out io.Writer, log *logger.Logger) *repl {
	return &repl{engine: engine, in: in, out: out, log: log.WithComponent("repl")}
}

// Run loops until /quit, end of input or ctx is done.
func (r *repl) Run(ctx context.Context) error {
	scanCtx, stop := context.WithCancel(ctx)
	defer stop()
	lines := r.scan(scanCtx)
	for {
		fmt.Fprint(r.out, color.CyanString(prompt))

		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Fprintln(r.out)
			return nil
		case line, ok = <-lines:
		}
		if !ok {
			fmt.Fprintln(r.out)
			return nil
		}

		line = util.SanitizeLine(line)
		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/reset":
			r.reset()
		case line == "/history":
			r.history()
		case line == "/help":
			r.help()
		case strings.HasPrefix(line, "/"):
			fmt.Fprintf(r.out, "unknown command %s (try /help)\n", line)
		default:
			r.send(ctx, line)
		}
	}
}

// Interrupt cancels the in-flight exchange. It reports false when the
// engine was idle, in which case the caller should quit.
func (r *repl) Interrupt() bool {
	return r.engine.Cancel()
}

func (r *repl) scan(ctx context.Context) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		// Lines are unbounded; a pasted prompt may exceed any fixed buffer.
		br := bufio.NewReader(r.in)
		for {
			line, err := br.ReadString('\n')
			if line != "" {
				select {
				case lines <- strings.TrimSuffix(line, "\n"):
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					r.log.Warn("stdin read failed", logger.ErrorFields("read_stdin", err))
				}
				return
			}
		}
	}()
	return lines
}

func (r *repl) send(ctx context.Context, text string) {
	res, err := r.engine.Send(ctx, text, func(fragment string) {
		fmt.Fprint(r.out, fragment)
	})
	if res.Fragments > 0 {
		fmt.Fprintln(r.out)
	}
	if err == nil {
		return
	}

	r.log.Debug("exchange failed", logger.Fields(
		logger.FieldExchangeID, res.ExchangeID,
		logger.FieldError, err.Error(),
	))
	switch {
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(r.out, color.YellowString("[canceled]"))
	case llm.IsConcurrentExchange(err):
		fmt.Fprintln(r.out, color.YellowString("[busy] an exchange is already running"))
	default:
		fmt.Fprintln(r.out, color.RedString("[error] %v", err))
	}
	if res.Partial {
		fmt.Fprintln(r.out, color.YellowString("[partial reply kept in history]"))
	}
}

func (r *repl) reset() {
	if err := r.engine.Reset(); err != nil {
		fmt.Fprintln(r.out, color.RedString("[error] %v", err))
		return
	}
	fmt.Fprintln(r.out, color.GreenString("[history cleared]"))
}

func (r *repl) history() {
	turns := r.engine.Transcript()
	if len(turns) == 0 {
		fmt.Fprintln(r.out, "[no history]")
		return
	}
	for _, t := range turns {
		label := fmt.Sprintf("%-9s", t.Role+":")
		fmt.Fprintf(r.out, "%s %s\n", color.MagentaString(label), t.Content)
	}
}

func (r *repl) help() {
	fmt.Fprintln(r.out, "/reset    clear the conversation")
	fmt.Fprintln(r.out, "/history  print the conversation")
	fmt.Fprintln(r.out, "/quit     exit (also Ctrl-D)")
	fmt.Fprintln(r.out, "Ctrl-C cancels a reply in progress.")
}
