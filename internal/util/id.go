package util

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns a random identifier in the form <prefix>_<uuid without dashes>.
func NewID(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	if prefix == "" {
		return raw
	}
	return prefix + "_" + raw
}
