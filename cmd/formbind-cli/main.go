package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"github.com/goliatone/go-formbind"
	"github.com/goliatone/go-formbind/internal/prompt"
	"github.com/goliatone/go-formbind/pkg/config"
	"github.com/goliatone/go-formbind/pkg/messages"
	pkgopenapi "github.com/goliatone/go-formbind/pkg/openapi"
)

type options struct {
	config    string
	form      string
	openapi   string
	operation string
	model     string
	debug     bool
	plain     bool
	rounds    int
}

func main() {
	var opts options
	flag.StringVar(&opts.config, "config", "", "form definition file (.yaml, .json or .hcl)")
	flag.StringVar(&opts.form, "form", "", "form name within the definition file")
	flag.StringVar(&opts.openapi, "openapi", "", "OpenAPI document to derive the form from")
	flag.StringVar(&opts.operation, "operation", "", "operation ID within the OpenAPI document")
	flag.StringVar(&opts.model, "model", "form", "model path used for OpenAPI forms")
	flag.BoolVar(&opts.debug, "debug", false, "log store intents and dump the final store state")
	flag.BoolVar(&opts.plain, "plain", false, "disable colored output")
	flag.IntVar(&opts.rounds, "rounds", 3, "maximum prompt rounds before submitting")
	flag.Parse()

	ctx := context.Background()
	err := run(ctx, opts, prompt.NewSurveyDriver(os.Stdout), os.Stdout, os.Stderr)
	if errors.Is(err, prompt.ErrAborted) {
		os.Exit(130)
	}
	if err != nil {
		log.Fatalf("formbind: %v", err)
	}
}

func run(ctx context.Context, opts options, driver prompt.Driver, stdout, stderr io.Writer) error {
	level := slog.LevelWarn
	if opts.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	var submitted any
	onSubmit := func(v any) { submitted = v }

	f, fields, catalog, title, err := bind(ctx, opts, onSubmit, logger)
	if err != nil {
		return err
	}

	styles := prompt.DefaultStyles()
	if opts.plain {
		styles = prompt.PlainStyles()
	}
	session, err := prompt.NewSession(f, driver, catalog, fields,
		prompt.WithLogger(logger),
		prompt.WithStyles(styles),
		prompt.WithMaxRounds(opts.rounds),
		prompt.WithTitle(title),
	)
	if err != nil {
		return err
	}
	out, err := session.Run(ctx)
	if err != nil {
		return err
	}

	if opts.debug {
		spew.Fdump(stdout, f.Store.State())
	}
	if !out.Submitted {
		return fmt.Errorf("%s was not submitted", f.Path())
	}
	spew.Fprintf(stdout, "%v\n", submitted)
	return nil
}

func bind(ctx context.Context, opts options, onSubmit func(any), logger *slog.Logger) (*formbind.MemoryForm, []prompt.Field, *messages.Catalog, string, error) {
	switch {
	case opts.config != "" && opts.openapi != "":
		return nil, nil, nil, "", errors.New("-config and -openapi are mutually exclusive")
	case opts.config != "":
		set, err := config.LoadFile(opts.config, nil)
		if err != nil {
			return nil, nil, nil, "", err
		}
		def, err := pickForm(set, opts.form)
		if err != nil {
			return nil, nil, nil, "", err
		}
		f, err := formbind.FromDefinition(def, onSubmit, formbind.WithLogger(logger))
		if err != nil {
			return nil, nil, nil, "", err
		}
		catalog, err := messages.New(messages.WithTemplates(def.Messages))
		if err != nil {
			return nil, nil, nil, "", err
		}
		return f, prompt.FieldsFromDefinition(def), catalog, def.Name, nil
	case opts.openapi != "":
		if strings.TrimSpace(opts.operation) == "" {
			return nil, nil, nil, "", errors.New("-operation is required with -openapi")
		}
		op, err := formbind.LoadOperation(ctx, pkgopenapi.SourceFromFile(opts.openapi), opts.operation)
		if err != nil {
			return nil, nil, nil, "", err
		}
		f, err := formbind.FromOperation(op, opts.model, onSubmit, formbind.WithLogger(logger))
		if err != nil {
			return nil, nil, nil, "", err
		}
		catalog, err := messages.New()
		if err != nil {
			return nil, nil, nil, "", err
		}
		title := op.Summary
		if title == "" {
			title = op.Method + " " + op.Path
		}
		return f, prompt.FieldsFromOperation(op), catalog, title, nil
	default:
		return nil, nil, nil, "", errors.New("one of -config or -openapi is required")
	}
}

func pickForm(set *config.Set, name string) (config.Definition, error) {
	if name != "" {
		def, ok := set.Form(name)
		if !ok {
			return config.Definition{}, fmt.Errorf("form %q not found (have %s)", name, strings.Join(set.Names(), ", "))
		}
		return def, nil
	}
	names := set.Names()
	if len(names) != 1 {
		return config.Definition{}, fmt.Errorf("-form is required when the file defines %d forms", len(names))
	}
	def, _ := set.Form(names[0])
	return def, nil
}
