package export

import (
	"errors"

	"github.com/atotto/clipboard"

	apperrors "github.com/linkedin-postgen/internal/errors"
)

// ErrClipboardUnavailable is returned when no system clipboard tool exists
var ErrClipboardUnavailable = errors.New("system clipboard is not available")

// CopyToClipboard puts text on the system clipboard
func CopyToClipboard(text string) error {
	if clipboard.Unsupported {
		return apperrors.NewExportError("failed to copy to clipboard", ErrClipboardUnavailable)
	}
	if err := clipboard.WriteAll(text); err != nil {
		return apperrors.NewExportError("failed to copy to clipboard", err)
	}
	return nil
}
