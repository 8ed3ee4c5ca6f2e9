// Command deskmate runs the personal assistant: a master agent that routes
// each request to the Gmail or To-Do specialist, each backed by its own
// remote tool server.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/Protocol-Lattice/deskmate"
	"github.com/Protocol-Lattice/deskmate/pkg/config"
	"github.com/Protocol-Lattice/deskmate/pkg/gmail"
	"github.com/Protocol-Lattice/deskmate/pkg/mcp"
	"github.com/Protocol-Lattice/deskmate/pkg/models"
	"github.com/Protocol-Lattice/deskmate/pkg/todo"
	"github.com/Protocol-Lattice/deskmate/pkg/tools"
)

func main() {
	configPath := flag.String("config", "", "Path to deskmate.yaml (optional)")
	provider := flag.String("provider", "", "Reasoning provider: gemini, openai, or anthropic")
	modelName := flag.String("model", "", "Model name for the chosen provider")
	gmailURL := flag.String("gmail-url", "", "Gmail tool server URL override")
	todoURL := flag.String("todo-url", "", "To-Do tool server URL override")
	flag.Parse()

	// A missing .env is fine; explicit environment still applies.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *provider != "" {
		cfg.Provider = *provider
	}
	if *modelName != "" {
		cfg.Model = *modelName
	}
	if *gmailURL != "" {
		cfg.Gmail = config.Endpoint{MCPURL: *gmailURL}
	}
	if *todoURL != "" {
		cfg.Todo = config.Endpoint{MCPURL: *todoURL}
	}

	ctx := context.Background()

	model, err := buildModel(ctx, cfg)
	if err != nil {
		log.Fatalf("initialise reasoning backend: %v", err)
	}

	gmailInvoker, err := buildInvoker(cfg.Gmail, "gmail")
	if err != nil {
		log.Fatalf("gmail endpoint: %v", err)
	}
	todoInvoker, err := buildInvoker(cfg.Todo, "todo")
	if err != nil {
		log.Fatalf("todo endpoint: %v", err)
	}

	gmailAgent, err := gmail.New(gmail.Options{
		Model:     model,
		Caller:    gmailInvoker,
		MaxRounds: cfg.MaxRounds,
		Closers:   []func() error{gmailInvoker.Close},
	})
	if err != nil {
		log.Fatalf("build gmail agent: %v", err)
	}
	defer gmailAgent.Close()

	todoAgent, err := todo.New(todo.Options{
		Model:     model,
		Caller:    todoInvoker,
		MaxRounds: cfg.MaxRounds,
		Closers:   []func() error{todoInvoker.Close},
	})
	if err != nil {
		log.Fatalf("build todo agent: %v", err)
	}
	defer todoAgent.Close()

	master, err := deskmate.NewMaster(deskmate.MasterOptions{
		Model:     model,
		SubAgents: []deskmate.SubAgent{gmailAgent, todoAgent},
		MaxRounds: cfg.MaxRounds,
	})
	if err != nil {
		log.Fatalf("build master agent: %v", err)
	}

	// Probe both endpoints up front so misconfiguration surfaces before the
	// first request. Failures are advisory: connections are re-attempted
	// lazily on the first tool call.
	probe(ctx, "Gmail", gmailInvoker)
	probe(ctx, "To-Do", todoInvoker)

	// Remaining arguments form a one-shot request.
	if args := flag.Args(); len(args) > 0 {
		answer, err := master.Chat(ctx, strings.Join(args, " "))
		if err != nil {
			log.Fatalf("request failed: %v", err)
		}
		fmt.Println(answer)
		return
	}

	runInteractive(ctx, master)
}

// buildModel selects the reasoning backend from configuration.
func buildModel(ctx context.Context, cfg config.Config) (models.ChatModel, error) {
	switch strings.ToLower(cfg.Provider) {
	case "gemini":
		return models.NewGeminiChat(ctx, cfg.Model)
	case "openai":
		return models.NewOpenAIChat(cfg.Model), nil
	case "anthropic":
		return models.NewAnthropicChat(cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (want gemini, openai, or anthropic)", cfg.Provider)
	}
}

// buildInvoker wires an endpoint description into a lazily-connecting
// invoker.
func buildInvoker(ep config.Endpoint, name string) (*tools.Invoker, error) {
	if ep.MCPURL != "" {
		url := ep.MCPURL
		return tools.NewInvoker(url, func(ctx context.Context) (*mcp.Client, error) {
			return mcp.NewHTTPClient(ctx, mcp.HTTPConfig{URL: url})
		}), nil
	}
	if len(ep.MCPCommand) > 0 {
		command := ep.MCPCommand[0]
		args := ep.MCPCommand[1:]
		return tools.NewInvoker(strings.Join(ep.MCPCommand, " "), func(ctx context.Context) (*mcp.Client, error) {
			return mcp.NewStdioClient(ctx, mcp.StdioConfig{Command: command, Args: args})
		}), nil
	}
	return nil, fmt.Errorf("%s endpoint is not configured: set mcp_url or mcp_command", name)
}

// probe attempts the initial connection and prints troubleshooting hints on
// failure without aborting: the invoker reconnects on the next tool call.
func probe(ctx context.Context, label string, invoker *tools.Invoker) {
	if err := invoker.EnsureConnected(ctx); err != nil {
		log.Printf("warning: %s tool server is not reachable: %v", label, err)
		log.Printf("  1. Check the %s tool server is running", label)
		log.Printf("  2. Verify its credentials are configured")
		log.Printf("  3. The connection will be retried on the next request")
		return
	}
	log.Printf("connected to %s tool server", label)
}

// exitTokens end the interactive session.
var exitTokens = map[string]bool{"quit": true, "exit": true, "bye": true, "q": true}

func runInteractive(ctx context.Context, master *deskmate.Agent) {
	fmt.Println("Personal assistant ready. I can help with email and tasks.")
	fmt.Println("Type 'quit', 'exit', or 'bye' to end the conversation.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nYou: ")
		if !scanner.Scan() {
			fmt.Println("\nGoodbye!")
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if exitTokens[strings.ToLower(line)] {
			fmt.Println("Goodbye!")
			return
		}

		answer, err := master.Chat(ctx, line)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			fmt.Println("Please try again or type 'quit' to exit.")
			continue
		}
		fmt.Printf("Assistant: %s\n", answer)
	}
}
