package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-formkit/pkg/serialize"
	"github.com/goliatone/go-formkit/pkg/terminal"
)

var errInvalid = errors.New("submission is invalid")

func schemaFlag(fs *flag.FlagSet) *string {
	return fs.String("schema", "", "schema id")
}

func requireSchema(id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("-schema is required")
	}
	return nil
}

func runRender(ctx context.Context, args []string, out io.Writer) error {
	var c common
	fs := newFlagSet("render", &c)
	id := schemaFlag(fs)
	target := fs.String("target", serialize.TargetWeb, "serialization target")
	statePath := fs.String("state", "", "JSON state file, - for stdin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireSchema(*id); err != nil {
		return err
	}

	rt, err := setup(ctx, c)
	if err != nil {
		return err
	}
	defer rt.Close()

	values, err := readState(*statePath)
	if err != nil {
		return err
	}
	fields, err := rt.kit.Render(ctx, *id, values, *target, nil)
	if err != nil {
		return err
	}
	return writeJSON(out, fields)
}

func runValidate(ctx context.Context, args []string, out io.Writer) error {
	var c common
	fs := newFlagSet("validate", &c)
	id := schemaFlag(fs)
	statePath := fs.String("state", "-", "JSON state file, - for stdin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireSchema(*id); err != nil {
		return err
	}

	rt, err := setup(ctx, c)
	if err != nil {
		return err
	}
	defer rt.Close()

	values, err := readState(*statePath)
	if err != nil {
		return err
	}
	errs, err := rt.kit.Validate(ctx, *id, values)
	if err != nil {
		return err
	}
	if errs.Empty() {
		_, err := fmt.Fprintln(out, "ok")
		return err
	}
	if err := writeJSON(out, errs); err != nil {
		return err
	}
	return errInvalid
}

func runFill(ctx context.Context, args []string, out io.Writer) error {
	var c common
	fs := newFlagSet("fill", &c)
	id := schemaFlag(fs)
	statePath := fs.String("state", "", "JSON file with initial values")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireSchema(*id); err != nil {
		return err
	}

	rt, err := setup(ctx, c)
	if err != nil {
		return err
	}
	defer rt.Close()

	initial, err := readState(*statePath)
	if err != nil {
		return err
	}
	filler := terminal.New(rt.kit.Engine,
		terminal.WithValidator(rt.kit.Validator),
		terminal.WithLogger(rt.logger),
	)
	values, err := filler.Fill(ctx, *id, initial)
	if err != nil {
		return err
	}
	return writeJSON(out, values)
}

func runSchemas(ctx context.Context, args []string, out io.Writer) error {
	var c common
	fs := newFlagSet("schemas", &c)
	if err := fs.Parse(args); err != nil {
		return err
	}
	rt, err := setup(ctx, c)
	if err != nil {
		return err
	}
	defer rt.Close()

	for _, id := range rt.kit.Registry.IDs() {
		if _, err := fmt.Fprintln(out, id); err != nil {
			return err
		}
	}
	return nil
}
