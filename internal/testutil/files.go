package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteFiles creates a temporary directory, writes every file into it and
// returns the directory. Names are slash-separated paths relative to the
// directory; intermediate directories are created.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

// XORNetwork is a small description used by tests across packages: two
// inputs, three hidden units and one output, trained for two epochs.
const XORNetwork = `
locals {
  hidden_units = 3
}

network "xor" {
  type               = "feed_forward"
  ticks_per_interval = 1
  learning_rate      = 0.25
  mode               = "train"
  epochs             = 2
  examples           = 4
}

group "in" {
  type  = "input"
  units = 2
}

group "hid" {
  type  = "hidden"
  units = local.hidden_units
}

group "out" {
  type  = "output"
  units = 1
}

link "in" "hid" {}

link "hid" "out" {
  weights = [0.5, -0.5, 0.25]
}
`
