package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/scribbleink/scribble/pkg/config"
	"github.com/scribbleink/scribble/pkg/errors"
	"github.com/scribbleink/scribble/pkg/pipeline"
	"github.com/scribbleink/scribble/pkg/render"
	"github.com/scribbleink/scribble/pkg/scribble"
)

// generateFlags holds the command-line flags for the generate command.
type generateFlags struct {
	config        string
	output        string
	name          string
	formats       string
	scale         float64
	layers        int
	exponent      float64
	prefactor     float64
	maxLineLength float64
	seed          uint64
	duration      float64
	fps           float64
	animWidth     int
	animHeight    int
	highlight     string
	highlightSecs float64
	holdSecs      float64
	clean         bool
	noCache       bool
	refresh       bool
	noTUI         bool
}

// generateCommand creates the generate command for producing scribble art.
func (c *CLI) generateCommand() *cobra.Command {
	var flags generateFlags

	cmd := &cobra.Command{
		Use:   "generate [image]",
		Short: "Generate scribble art from an image",
		Long: `Generate scribble art from an image.

The generate command loads a grayscale density field from the source
image and draws it as layered scribbles: each layer keeps only pixels
darker than its cutoff and samples them with a layer-dependent
probability, so dark regions accumulate strokes across many layers.

Options can come from a TOML file (options.toml when present, or
--config) and from flags; flags win where both are set. Outputs are
written to the output directory as <name>.<format>.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) > 0 {
				input = args[0]
			}
			return c.runGenerate(cmd.Context(), cmd, input, &flags)
		},
	}

	cmd.Flags().StringVarP(&flags.config, "config", "c", "", "options file (default: options.toml when present)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output directory (default: output)")
	cmd.Flags().StringVar(&flags.name, "name", "", "base name for output files (default: input file name)")
	cmd.Flags().StringVarP(&flags.formats, "formats", "f", "", "output format(s): png (default), svg, gif, json (comma-separated)")
	cmd.Flags().Float64Var(&flags.scale, "scale", pipeline.DefaultScale, "image scale factor applied before sampling")
	cmd.Flags().IntVarP(&flags.layers, "layers", "l", scribble.DefaultLayers, "number of density layers")
	cmd.Flags().Float64VarP(&flags.exponent, "exponent", "e", scribble.DefaultExponent, "probability schedule exponent (0 gives every layer the same probability)")
	cmd.Flags().Float64VarP(&flags.prefactor, "prefactor", "p", scribble.DefaultPrefactor, "probability schedule prefactor")
	cmd.Flags().Float64Var(&flags.maxLineLength, "max-line-length", scribble.DefaultMaxLineLengthFactor, "max segment length as a fraction of the short image side")
	cmd.Flags().Uint64Var(&flags.seed, "seed", scribble.DefaultSeed, "random seed (same seed, same drawing)")
	cmd.Flags().Float64Var(&flags.duration, "duration", render.DefaultAnimDuration, "drawing time in seconds (gif)")
	cmd.Flags().Float64Var(&flags.fps, "fps", render.DefaultAnimFPS, "frames per second (gif)")
	cmd.Flags().IntVar(&flags.animWidth, "anim-width", render.DefaultAnimWidth, "animation frame width (gif)")
	cmd.Flags().IntVar(&flags.animHeight, "anim-height", render.DefaultAnimHeight, "animation frame height (gif)")
	cmd.Flags().StringVar(&flags.highlight, "highlight", "", "color of freshly drawn lines as #rrggbb (gif)")
	cmd.Flags().Float64Var(&flags.highlightSecs, "highlight-secs", render.DefaultAnimHighlightSecs, "seconds lines keep the highlight color (gif)")
	cmd.Flags().Float64Var(&flags.holdSecs, "hold-secs", render.DefaultAnimHoldSecs, "seconds the finished drawing holds (gif)")
	cmd.Flags().BoolVar(&flags.clean, "clean", false, "empty the output directory before writing")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "recompute cached results and overwrite their entries")
	cmd.Flags().BoolVar(&flags.noTUI, "no-tui", false, "disable the live progress view")

	return cmd
}

// runGenerate merges file and flag options, runs the pipeline, and
// writes the rendered artifacts.
func (c *CLI) runGenerate(ctx context.Context, cmd *cobra.Command, input string, flags *generateFlags) error {
	cfg, cfgPath, err := loadConfig(flags.config)
	if err != nil {
		return err
	}

	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, &opts, flags)
	if cmd.Flags().Changed("highlight") {
		hl, err := config.ParseHighlight(flags.highlight)
		if err != nil {
			return err
		}
		opts.Anim.Highlight = hl
	}

	if input != "" {
		if opts.Input != "" && opts.Input != input {
			printWarning("Ignoring input %s from the options file in favor of %s", opts.Input, input)
		}
		opts.Input = input
	}
	if opts.Input == "" {
		return errors.New(errors.ErrCodeInvalidConfig,
			"no input image: pass one as an argument or set input in %s", config.DefaultFile)
	}
	if cfgPath != "" {
		printInfo("Options from %s", cfgPath)
	}

	opts.Refresh = flags.refresh
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	outDir := cfg.Output.Dir
	if cmd.Flags().Changed("output") {
		outDir = flags.output
	}
	if outDir == "" {
		outDir = config.DefaultOutputDir
	}
	name := cfg.Output.Name
	if cmd.Flags().Changed("name") {
		name = flags.name
	}
	if name == "" {
		name = stem(opts.Input)
	}
	if err := errors.ValidateBaseName(name); err != nil {
		return err
	}
	if err := prepareOutputDir(outDir, flags.clean || cfg.Output.Clean); err != nil {
		return fmt.Errorf("prepare output dir %s: %w", outDir, err)
	}

	res, err := c.execute(ctx, opts, flags)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	written, err := writeArtifacts(res.Artifacts, opts.Formats, outDir, name)
	if err != nil {
		return err
	}

	printSuccess("Scribble complete")
	for _, p := range written {
		printFile(p)
	}
	printStats(res.Stats.Points, res.Stats.Segments, res.CacheInfo.PathHit)
	printKeyValue("Field", fmt.Sprintf("%dx%d", res.Stats.FieldWidth, res.Stats.FieldHeight))
	printKeyValue("Seed", strconv.FormatUint(opts.Seed, 10))
	printKeyValue("Took", totalTime(res.Stats).Round(time.Millisecond).String())
	if !hasFormat(opts.Formats, pipeline.FormatGIF) {
		printNewline()
		printNextStep("Animate it", fmt.Sprintf("scribble generate %s -f gif", opts.Input))
	}
	return nil
}

// execute runs the pipeline with either the live progress view or a
// plain spinner, depending on the terminal.
func (c *CLI) execute(ctx context.Context, opts pipeline.Options, flags *generateFlags) (*pipeline.Result, error) {
	if !flags.noTUI && isatty.IsTerminal(os.Stderr.Fd()) {
		runner, err := c.newRunner(flags.noCache, quietLogger())
		if err != nil {
			return nil, fmt.Errorf("initialize runner: %w", err)
		}
		defer runner.Close()
		return c.runGenerateTUI(ctx, runner, opts)
	}

	runner, err := c.newRunner(flags.noCache, c.Logger)
	if err != nil {
		return nil, fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Scribbling %s...", filepath.Base(opts.Input)))
	spinner.Start()
	res, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Generation failed")
		return nil, err
	}
	spinner.Stop()
	return res, nil
}

// loadConfig loads the options file. An explicit path must exist; the
// default file is picked up only when present. The returned path is
// empty when built-in defaults were used.
func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.Load(path)
		return cfg, path, err
	}
	if _, err := os.Stat(config.DefaultFile); err == nil {
		cfg, err := config.Load(config.DefaultFile)
		return cfg, config.DefaultFile, err
	}
	return config.Default(), "", nil
}

// applyFlagOverrides lays explicitly set flags over the file-derived
// options. Flag defaults never clobber file values.
func applyFlagOverrides(cmd *cobra.Command, opts *pipeline.Options, flags *generateFlags) {
	set := cmd.Flags().Changed
	if set("scale") {
		opts.Scale = flags.scale
	}
	if set("layers") {
		opts.Layers = flags.layers
	}
	if set("exponent") {
		opts.Exponent = flags.exponent
	}
	if set("prefactor") {
		opts.Prefactor = flags.prefactor
	}
	if set("max-line-length") {
		opts.MaxLineLengthFactor = flags.maxLineLength
	}
	if set("seed") {
		opts.Seed = flags.seed
	}
	if set("formats") {
		opts.Formats = splitFormats(flags.formats)
	}
	if set("duration") {
		opts.Anim.Duration = flags.duration
	}
	if set("fps") {
		opts.Anim.FPS = flags.fps
	}
	if set("anim-width") {
		opts.Anim.Width = flags.animWidth
	}
	if set("anim-height") {
		opts.Anim.Height = flags.animHeight
	}
	if set("highlight-secs") {
		opts.Anim.HighlightSecs = flags.highlightSecs
	}
	if set("hold-secs") {
		opts.Anim.HoldSecs = flags.holdSecs
	}
}

// prepareOutputDir ensures dir exists, emptying it first when clean is set.
func prepareOutputDir(dir string, clean bool) error {
	if clean {
		entries, err := os.ReadDir(dir)
		if err != nil && !os.IsNotExist(err) {
			return err
		}
		for _, e := range entries {
			if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
				return err
			}
		}
	}
	return os.MkdirAll(dir, 0o755)
}

// writeArtifacts writes each rendered format to dir as name.format and
// returns the written paths in format order.
func writeArtifacts(artifacts map[string][]byte, formats []string, dir, name string) ([]string, error) {
	paths := make([]string, 0, len(formats))
	for _, format := range formats {
		data, ok := artifacts[format]
		if !ok {
			continue
		}
		path := filepath.Join(dir, name+"."+format)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// splitFormats parses a comma-separated format list.
func splitFormats(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// stem returns the file name without directory or extension.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// hasFormat reports whether format appears in formats.
func hasFormat(formats []string, format string) bool {
	for _, f := range formats {
		if f == format {
			return true
		}
	}
	return false
}

// totalTime sums the stage durations for the summary line.
func totalTime(s pipeline.Stats) time.Duration {
	return s.LoadTime + s.GenerateTime + s.RenderTime
}
