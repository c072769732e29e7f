package cmd

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/mgutz/ansi"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stateful/blockstate/internal/config"
	"github.com/stateful/blockstate/internal/config/autoconfig"
	"github.com/stateful/blockstate/pkg/state"
)

// newBuilder returns an autoconfig builder honoring --config and
// --log-level.
func newBuilder() (*autoconfig.Builder, error) {
	builder := autoconfig.NewBuilder()

	if configFile != "" {
		dir, name := filepath.Split(configFile)
		if dir == "" {
			dir = "."
		}
		ext := filepath.Ext(name)
		err := builder.Decorate(func() (*config.Loader, error) {
			if _, err := os.Stat(configFile); err != nil {
				return nil, errors.WithStack(err)
			}
			return config.NewLoader(
				strings.TrimSuffix(name, ext),
				os.DirFS(dir),
				config.WithConfigTypes(strings.TrimPrefix(ext, ".")),
			), nil
		})
		if err != nil {
			return nil, err
		}
	}

	if logLevel != "" {
		err := builder.Decorate(func(cfg *config.Config) *config.Config {
			c := *cfg
			c.Log.Enabled = true
			c.Log.Level = logLevel
			return &c
		})
		if err != nil {
			return nil, err
		}
	}

	return builder, nil
}

func invoke(function interface{}) error {
	builder, err := newBuilder()
	if err != nil {
		return err
	}
	return builder.Invoke(function)
}

// readInput reads the named file, or stdin for "-".
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return data, errors.Wrap(err, "failed to read from stdin")
	}
	data, err := os.ReadFile(name)
	return data, errors.Wrapf(err, "failed to read file %q", name)
}

// readSnapshot decodes a snapshot file. An empty name yields no blocks.
func readSnapshot(cmd *cobra.Command, name string) (state.Blocks, error) {
	if name == "" {
		return nil, nil
	}
	data, err := readInput(cmd, name)
	if err != nil {
		return nil, err
	}
	var blocks state.Blocks
	if err := json.Unmarshal(data, &blocks); err != nil {
		return nil, errors.Wrapf(err, "failed to decode snapshot %q", name)
	}
	return blocks, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(v), "failed to write result")
}

func writeJSONFile(name string, v any) error {
	f, err := os.Create(name)
	if err != nil {
		return errors.Wrapf(err, "failed to create file %q", name)
	}
	if err := writeJSON(f, v); err != nil {
		_ = f.Close()
		return err
	}
	return errors.WithStack(f.Close())
}

type colorizer struct {
	enabled bool
}

func newColorizer(w io.Writer) colorizer {
	f, ok := w.(*os.File)
	return colorizer{enabled: ok && isatty.IsTerminal(f.Fd())}
}

func (c colorizer) color(s, style string) string {
	if !c.enabled {
		return s
	}
	return ansi.Color(s, style)
}
