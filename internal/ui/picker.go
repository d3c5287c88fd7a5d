package ui

import (
	"errors"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"golang.org/x/term"
)

// IsTerminal returns true if both stdin and stdout are terminals.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Picker chooses one item from a list.
type Picker interface {
	Pick(title string, items []string) (string, bool, error)
}

// NewPicker returns a fuzzy-filtering picker on a terminal and a picker that
// always cancels otherwise.
func NewPicker(interactive bool) Picker {
	if interactive {
		return HuhPicker{}
	}
	return cancelPicker{}
}

// HuhPicker picks with a filterable huh select.
type HuhPicker struct{}

// Pick shows items and returns the chosen one. ok is false when the user
// aborts the form.
func (HuhPicker) Pick(title string, items []string) (string, bool, error) {
	if len(items) == 0 {
		return "", false, nil
	}

	var choice string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(title).
				Options(huh.NewOptions(items...)...).
				Filtering(true).
				Height(min(len(items)+2, 15)).
				Value(&choice),
		),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", false, nil
		}
		return "", false, err
	}
	return choice, choice != "", nil
}

type cancelPicker struct{}

func (cancelPicker) Pick(string, []string) (string, bool, error) {
	return "", false, nil
}

// RunWithSpinner runs action, showing a spinner with title on a terminal.
func RunWithSpinner(interactive bool, title string, action func()) error {
	if !interactive {
		action()
		return nil
	}
	return spinner.New().
		Title(title).
		Action(action).
		Run()
}
