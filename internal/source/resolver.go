// Package source resolves Loom video references to their video IDs.
package source

import (
	"fmt"
	"regexp"
)

// referencePattern matches the two Loom URL variants that embed a video ID:
// loom.com/share/<id> and loom.com/embed/<id>.
var referencePattern = regexp.MustCompile(`loom\.com/(?:share|embed)/([a-zA-Z0-9]+)`)

// InvalidReferenceError reports a reference that carries no extractable
// video ID. It is terminal; nothing is retried or downloaded for it.
type InvalidReferenceError struct {
	Reference string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("no video ID found in reference %q", e.Reference)
}

// Resolve extracts the video ID from a Loom share or embed URL.
// It performs no I/O.
func Resolve(reference string) (string, error) {
	m := referencePattern.FindStringSubmatch(reference)
	if m == nil {
		return "", &InvalidReferenceError{Reference: reference}
	}
	return m[1], nil
}
