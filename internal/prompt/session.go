package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/lipgloss"

	"github.com/goliatone/go-formbind"
	"github.com/goliatone/go-formbind/pkg/keypath"
	"github.com/goliatone/go-formbind/pkg/messages"
)

// Styles decorate the lines a session prints.
type Styles struct {
	Title lipgloss.Style
	OK    lipgloss.Style
	Error lipgloss.Style
	Hint  lipgloss.Style
}

// DefaultStyles returns the colored styles used on terminals.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#89b4fa")),
		OK:    lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1")),
		Error: lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8")),
		Hint:  lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c")),
	}
}

// PlainStyles returns styles that render text unchanged.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{Title: plain, OK: plain, Error: plain, Hint: plain}
}

// Outcome summarises a finished session.
type Outcome struct {
	Submitted bool
	Value     any
	Messages  []messages.Message
	Rounds    int
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStyles overrides the output styles.
func WithStyles(styles Styles) Option {
	return func(s *Session) {
		s.styles = styles
	}
}

// WithMaxRounds bounds how many times invalid fields are asked again.
func WithMaxRounds(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxRounds = n
		}
	}
}

// WithTitle sets the heading printed before the first prompt.
func WithTitle(title string) Option {
	return func(s *Session) {
		s.title = title
	}
}

// Session asks for every field of a bound form, reports validation messages
// and submits once the user stops correcting answers.
type Session struct {
	form      *formbind.MemoryForm
	driver    Driver
	catalog   *messages.Catalog
	fields    []Field
	styles    Styles
	logger    *slog.Logger
	maxRounds int
	title     string
}

// NewSession builds a session. A nil catalog renders the default messages.
func NewSession(form *formbind.MemoryForm, driver Driver, catalog *messages.Catalog, fields []Field, options ...Option) (*Session, error) {
	if form == nil {
		return nil, errors.New("prompt: form is required")
	}
	if driver == nil {
		return nil, errors.New("prompt: driver is required")
	}
	if catalog == nil {
		var err error
		if catalog, err = messages.New(); err != nil {
			return nil, err
		}
	}
	s := &Session{
		form:      form,
		driver:    driver,
		catalog:   catalog,
		fields:    fields,
		styles:    DefaultStyles(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxRounds: 3,
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Run mounts the form and drives it to a submit.
func (s *Session) Run(ctx context.Context) (Outcome, error) {
	var out Outcome
	if err := s.form.Mount(); err != nil {
		return out, err
	}
	if s.title != "" {
		if err := s.driver.Info(ctx, s.styles.Title.Render(s.title)); err != nil {
			return out, err
		}
	}

	pending := s.fields
	for {
		out.Rounds++
		for _, field := range pending {
			if err := s.ask(ctx, field); err != nil {
				return out, err
			}
		}
		msgs, err := s.report(ctx)
		if err != nil {
			return out, err
		}
		if len(msgs) == 0 || out.Rounds >= s.maxRounds {
			break
		}
		retry, err := s.driver.Confirm(ctx, ConfirmConfig{Message: "Fix the errors above?", Default: true})
		if err != nil {
			return out, err
		}
		if !retry {
			break
		}
		if pending = s.invalid(); len(pending) == 0 {
			pending = s.fields
		}
	}

	if _, err := s.form.Submit(); err != nil {
		return out, err
	}
	state := s.form.Meta()
	out.Value = s.form.Value()
	out.Submitted = state.Form.Submitted && !state.Form.SubmitFailed
	if out.Submitted {
		s.logger.Info("form submitted", "model", s.form.Path(), "rounds", out.Rounds)
		return out, s.driver.Info(ctx, s.styles.OK.Render("submitted"))
	}

	msgs, err := s.catalog.RenderForm(state, out.Value)
	if err != nil {
		return out, err
	}
	out.Messages = msgs
	s.logger.Info("submit rejected", "model", s.form.Path(), "errors", len(msgs))
	return out, s.driver.Info(ctx, s.styles.Error.Render(fmt.Sprintf("submit rejected: %d error(s)", len(msgs))))
}

func (s *Session) ask(ctx context.Context, field Field) error {
	current := keypath.Get(s.form.Value(), field.Path)
	message := field.Label
	if field.Required {
		message += " *"
	}

	var value any
	switch field.Kind {
	case KindBool:
		def, _ := current.(bool)
		answer, err := s.driver.Confirm(ctx, ConfirmConfig{Message: message, Default: def, Help: field.Help})
		if err != nil {
			return err
		}
		value = answer
	case KindChoice:
		idx, err := s.driver.Select(ctx, SelectConfig{
			Message:      message,
			Options:      field.Options,
			DefaultIndex: indexOf(field.Options, field.Display(current)),
			Help:         field.Help,
		})
		if err != nil {
			return err
		}
		if idx >= 0 && idx < len(field.Options) {
			value = field.Options[idx]
		}
	case KindMultiChoice:
		picked, err := s.driver.MultiSelect(ctx, SelectConfig{
			Message:  message,
			Options:  field.Options,
			Defaults: field.selected(current),
			Help:     field.Help,
		})
		if err != nil {
			return err
		}
		items := []string{}
		for _, idx := range picked {
			if idx >= 0 && idx < len(field.Options) {
				items = append(items, field.Options[idx])
			}
		}
		value = items
	default:
		cfg := InputConfig{
			Message: message,
			Default: field.Display(current),
			Help:    field.Help,
			Validator: func(raw string) error {
				_, err := field.Parse(raw)
				return err
			},
		}
		var raw string
		var err error
		if field.Kind == KindSecret {
			raw, err = s.driver.Password(ctx, cfg)
		} else {
			raw, err = s.driver.Input(ctx, cfg)
		}
		if err != nil {
			return err
		}
		if value, err = field.Parse(raw); err != nil {
			// keep the raw text so validation reports the field
			s.logger.Debug("answer not parsed", "field", field.Path, "error", err)
			value = raw
		}
	}

	if _, err := s.form.Change(field.Path, value); err != nil {
		return fmt.Errorf("prompt: %s: %w", field.Path, err)
	}
	s.logger.Debug("field changed", "field", field.Path, "kind", field.Kind)
	return nil
}

func (s *Session) report(ctx context.Context) ([]messages.Message, error) {
	msgs, err := s.catalog.RenderForm(s.form.Meta(), s.form.Value())
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, s.driver.Info(ctx, s.styles.OK.Render("all fields valid"))
	}
	for _, msg := range msgs {
		line := s.styles.Error.Render("x " + msg.Text)
		if msg.Path != "" {
			line += " " + s.styles.Hint.Render("("+msg.Path+")")
		}
		if err := s.driver.Info(ctx, line); err != nil {
			return nil, err
		}
	}
	return msgs, nil
}

func (s *Session) invalid() []Field {
	state := s.form.Meta()
	var out []Field
	for _, field := range s.fields {
		if !state.Field(field.Path).Valid {
			out = append(out, field)
		}
	}
	return out
}
