// Package input reads YAML (or JSON) documents given to CLI commands.
package input

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
)

// Stdin is the path that selects standard input.
const Stdin = "-"

// Load decodes the YAML document at path into v. YAML is a superset of
// JSON, so JSON files load too.
func Load(path string, stdin io.Reader, v any) error {
	var (
		b   []byte
		err error
	)
	if path == Stdin {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.UnmarshalWithOptions(b, v, yaml.Strict()); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
