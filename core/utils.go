package core

import (
	"strings"

	"github.com/volatiletech/null/v8"
)

// CleanString trims surrounding whitespace from s, lowering it when asked.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// CleanNullString cleans s like CleanString and wraps it in a null.String
// that is null when the cleaned value is empty. Optional columns (student
// email, notice attachment URL) all funnel through here.
func CleanNullString(s string, lower ...bool) null.String {
	s = CleanString(s, lower...)
	return null.NewString(s, s != "")
}
