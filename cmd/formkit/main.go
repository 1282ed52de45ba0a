package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
)

const usage = `usage: formkit <command> [flags]

commands:
  serve     run the reactive HTTP, WebSocket and search endpoints
  render    serialize a schema to JSON
  validate  validate a JSON state file against a schema
  fill      fill a schema interactively in the terminal
  schemas   list the loaded schema ids
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "serve":
		err = runServe(ctx, args)
	case "render":
		err = runRender(ctx, args, os.Stdout)
	case "validate":
		err = runValidate(ctx, args, os.Stdout)
	case "fill":
		err = runFill(ctx, args, os.Stdout)
	case "schemas":
		err = runSchemas(ctx, args, os.Stdout)
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("formkit %s: %v", os.Args[1], err)
	}
}

// common holds the flags shared by every command.
type common struct {
	config  string
	schemas string
	openapi string
}

func newFlagSet(name string, c *common) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&c.config, "config", "", "config file (default ./formkit.yaml when present)")
	fs.StringVar(&c.schemas, "schemas", "", "schema directory, overrides schemas.dir")
	fs.StringVar(&c.openapi, "openapi", "", "OpenAPI document, overrides schemas.openapi")
	return fs
}

func writeJSON(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func readState(path string) (map[string]any, error) {
	if path == "" {
		return map[string]any{}, nil
	}
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return values, nil
}
