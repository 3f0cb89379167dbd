package cli

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"

	"github.com/shadow-fork/shadow-cli/internal/domain"
)

// pickSuggestion offers the close matches of a missing artifact.
// It returns "" when err carries nothing to pick from.
func pickSuggestion(err error) (string, error) {
	var notFound *domain.ArtifactNotFoundErr
	if !errors.As(err, &notFound) || len(notFound.Suggestions) == 0 {
		return "", nil
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "👉 {{ . | cyan }}",
		Inactive: "   {{ . | faint }}",
		Selected: "👍 {{ . | green }}",
		Help:     color.New(color.FgYellow).Sprint("Use arrow keys to navigate, Enter to select"),
	}

	prompt := promptui.Select{
		Label:     fmt.Sprintf("No artifact for %s. Did you mean:", notFound.Contract),
		Items:     notFound.Suggestions,
		Templates: templates,
		Size:      len(notFound.Suggestions),
	}

	_, choice, perr := prompt.Run()
	if perr != nil {
		return "", fmt.Errorf("selection cancelled: %w", perr)
	}
	return choice, nil
}
