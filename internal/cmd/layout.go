package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ayusman/depthkeys/internal/configpaths"
	"github.com/ayusman/depthkeys/internal/layout"
)

// LayoutCommand groups layout-related subcommands.
type LayoutCommand struct {
	Check LayoutCheck `cmd:"" help:"Validate a layout file against a frame size"`
	Init  LayoutInit  `cmd:"" help:"Write an example layout file"`
}

// LayoutCheck validates every key of a layout file.
type LayoutCheck struct {
	File   string `arg:"" name:"file" help:"Layout file (.yaml, .yml, .toml or .json)" type:"existingfile"`
	Width  int    `help:"Frame width" default:"512"`
	Height int    `help:"Frame height" default:"424"`

	out io.Writer
}

// Run is called by Kong when the layout check command is executed.
func (c *LayoutCheck) Run(logger *slog.Logger) error {
	l, err := layout.Load(c.File)
	if err != nil {
		return err
	}
	regions, err := l.Regions(c.Width, c.Height)
	if err != nil {
		return err
	}

	logger.Debug("layout valid", "file", c.File, "name", l.Name)
	fmt.Fprintf(c.writer(), "%s: %d keys OK for %dx%d\n", c.File, len(regions), c.Width, c.Height)
	return nil
}

func (c *LayoutCheck) writer() io.Writer {
	if c.out != nil {
		return c.out
	}
	return os.Stdout
}

// LayoutInit scaffolds a layout file with a home-row example.
type LayoutInit struct {
	Format string `help:"Output format" enum:"yaml,toml,json" default:"yaml"`
	Output string `help:"Destination file path (defaults to layout.<format> in the current directory)"`
	Force  bool   `help:"Overwrite if the file already exists"`
}

// Run writes the example layout.
func (c *LayoutInit) Run(logger *slog.Logger) error {
	format := layout.Format(normalizeFormat(c.Format))
	if format == "" {
		return fmt.Errorf("unsupported format: %s", c.Format)
	}

	dest := c.Output
	if dest == "" {
		dest = "layout." + string(format)
	}
	if !c.Force {
		if _, err := os.Stat(dest); err == nil {
			return errors.New("destination exists; use --force to overwrite")
		}
	}
	if err := configpaths.EnsureDir(dest); err != nil {
		return err
	}

	data, err := layout.Example().Marshal(format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return err
	}
	logger.Info("layout written", "path", dest)
	return nil
}
