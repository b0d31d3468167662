// Command ragrun runs a RAG agent graph against a single prompt and prints
// the informational messages and the final answer.
//
// Usage:
//
//	ragrun -p "What's the weather in Paris?" [-a hal9004_rag] [-m gpt-4o] [-config raggraph.yaml] [-env .env]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

// Args represents parsed command-line arguments.
type Args struct {
	// Prompt is the user request. Required.
	Prompt string
	// Agent overrides the configured agent name.
	Agent string
	// Model overrides the configured model name.
	Model string
	// ConfigFile is an optional YAML configuration path.
	ConfigFile string
	// EnvFile is an optional .env path.
	EnvFile string
	// Err is any error encountered during parsing.
	Err error
}

func parseArgs(osArgs []string) Args {
	fs := flag.NewFlagSet("ragrun", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var args Args
	fs.StringVar(&args.Prompt, "p", "", "the user prompt")
	fs.StringVar(&args.Agent, "a", "", "the agent to use (e.g. hal9004_rag)")
	fs.StringVar(&args.Model, "m", "", "the model to use (e.g. gpt-4o)")
	fs.StringVar(&args.ConfigFile, "config", "", "path to a YAML config file")
	fs.StringVar(&args.EnvFile, "env", "", "path to a .env file")

	if err := fs.Parse(osArgs); err != nil {
		args.Err = err
		return args
	}
	if fs.NArg() > 0 && args.Prompt == "" {
		args.Prompt = strings.Join(fs.Args(), " ")
	}
	if strings.TrimSpace(args.Prompt) == "" {
		args.Err = errors.New("a prompt is required (-p)")
	}
	return args
}

func main() {
	args := parseArgs(os.Args[1:])
	if args.Err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", args.Err)
		fmt.Fprintln(os.Stderr, "Usage: ragrun -p <prompt> [-a agent] [-m model] [-config file] [-env file]")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{stdout: os.Stdout, stderr: os.Stderr, newChat: newChatModel}
	if err := a.run(ctx, args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
