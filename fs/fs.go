package appfs

import "embed"

// FS holds all runtime assets baked into the binary: goose migrations and
// email templates. Keeping them embedded means the API and the admin CLI
// can run from any working directory.
//go:embed migrations all:templates
var FS embed.FS
