package clipboard

import (
	"fmt"

	"github.com/atotto/clipboard"
)

// WriteSystem puts text on the OS clipboard.
func WriteSystem(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("clipboard: write system clipboard: %w", err)
	}
	return nil
}

// ReadSystem returns the current OS clipboard text.
func ReadSystem() (string, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("clipboard: read system clipboard: %w", err)
	}
	return text, nil
}
