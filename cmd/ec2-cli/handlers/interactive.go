package handlers

import (
	"context"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/mattn/go-isatty"
)

// Interaction hooks - can be replaced in tests.
var (
	isInteractive = func() bool {
		if globals.LogFormat == LogFormatJSON {
			return false
		}
		return isTerminal()
	}

	promptInput = func(ctx context.Context, title, description string, validate func(string) error) (string, error) {
		var value string
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title(title).
					Description(description).
					Value(&value).
					Validate(validate),
			),
		).RunWithContext(ctx)
		return value, err
	}

	promptSelect = func(ctx context.Context, title string, options []huh.Option[string]) (string, error) {
		var value string
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title(title).
					Options(options...).
					Value(&value),
			),
		).RunWithContext(ctx)
		return value, err
	}

	promptConfirm = func(ctx context.Context, title string) (bool, error) {
		var ok bool
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(title).
					Affirmative("Yes").
					Negative("No").
					Value(&ok),
			),
		).RunWithContext(ctx)
		return ok, err
	}
)

// isTerminal returns true if stdout is a terminal.
func isTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// runStep runs fn behind a spinner on a terminal, and directly otherwise.
func runStep(ctx context.Context, title string, fn func(context.Context) error) error {
	if !isInteractive() {
		return fn(ctx)
	}
	return spinner.New().
		Title(title).
		Context(ctx).
		ActionWithErr(fn).
		Run()
}
