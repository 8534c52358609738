package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/image-convert-mcp/internal/convert"
	"github.com/ironsheep/image-convert-mcp/internal/imaging"
)

// convertFlags binds the convert subcommand's flags to an Options value.
func convertFlags(flags *flag.FlagSet, opts *convert.Options) (in, out *string) {
	in = flags.String("in", "-", "source image file, - for stdin")
	out = flags.String("out", "-", "destination file, - for stdout")

	flags.StringVar(&opts.SrcFormat, "src-format", "", "expected source format")
	flags.IntVar(&opts.Width, "width", 0, "target width")
	flags.IntVar(&opts.Height, "height", 0, "target height")
	flags.StringVar(&opts.ResizeStyle, "resize-style", "", "aspectfill, aspectfit, fill or crop")
	flags.StringVar(&opts.Gravity, "gravity", "", "Center, North, SouthEast, ... or None")
	flags.StringVar(&opts.CropMode, "crop-mode", "", "top-left ... bottom-right, or none")
	flags.IntVar(&opts.XOffset, "xoffset", 0, "crop box left edge for -resize-style crop")
	flags.IntVar(&opts.YOffset, "yoffset", 0, "crop box top edge for -resize-style crop")
	flags.StringVar(&opts.Filter, "filter", "", "resampling filter")
	flags.StringVar(&opts.Format, "format", "", "output format (default: from -out extension, else source format)")
	flags.IntVar(&opts.Quality, "quality", 0, "encoder quality 0-100")
	flags.Float64Var(&opts.Density, "density", 0, "output resolution in dpi")
	flags.BoolVar(&opts.Strip, "strip", false, "drop metadata")
	flags.Float64Var(&opts.Rotate, "rotate", 0, "clockwise rotation in degrees")
	flags.BoolVar(&opts.Flip, "flip", false, "mirror vertically")
	flags.BoolVar(&opts.Flop, "flop", false, "mirror horizontally")
	flags.Float64Var(&opts.Blur, "blur", 0, "gaussian blur sigma")
	flags.Float64Var(&opts.Brightness, "brightness", 0, "brightness change -100..100")
	flags.Float64Var(&opts.Contrast, "contrast", 0, "contrast change -100..100")
	flags.StringVar(&opts.Background, "background", "", "fill and flatten color")
	flags.BoolVar(&opts.Trim, "trim", false, "remove uniform borders")
	flags.Float64Var(&opts.TrimFuzz, "trim-fuzz", 0, "trim color tolerance 0-1")
	flags.BoolVar(&opts.AutoOrient, "auto-orient", false, "apply EXIF orientation")
	flags.Int64Var(&opts.MaxMemory, "max-memory", 0, "pixel cache ceiling in bytes")
	flags.BoolVar(&opts.Debug, "debug", false, "log every pipeline step")
	flags.BoolVar(&opts.IgnoreWarnings, "ignore-warnings", false, "continue past decode warnings")
	return in, out
}

func runConvert(ctx context.Context, a *app, args []string, stdin io.Reader, stdout io.Writer) error {
	var opts convert.Options
	flags := flag.NewFlagSet(name+" convert", flag.ContinueOnError)
	flags.SetOutput(stdout)
	in, out := convertFlags(flags, &opts)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if flags.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(flags.Args(), " "))
	}

	if opts.Format == "" && *out != "-" {
		if f, err := imaging.ParseFormat(strings.TrimPrefix(filepath.Ext(*out), ".")); err == nil {
			opts.Format = string(f)
		}
	}

	src := stdin
	if *in != "-" {
		f, err := os.Open(*in)
		if err != nil {
			return err
		}
		defer f.Close()
		src = f
	}

	dst := stdout
	var outFile *os.File
	if *out != "-" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		outFile = f
		dst = f
	}

	stream := a.conv.NewStream(ctx, dst, opts)
	_, err := io.Copy(stream, src)
	if err == nil {
		err = stream.Close()
	}
	if outFile != nil {
		if cerr := outFile.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(*out)
		}
	}
	if err != nil {
		return err
	}

	result := stream.Result()
	for _, w := range result.Warnings {
		a.logger.Warn().Str("warning", w).Msg("convert")
	}
	a.logger.Info().
		Str("format", string(result.Format)).
		Int("width", result.Width).
		Int("height", result.Height).
		Int("bytes", len(result.Data)).
		Msg("converted")
	return nil
}

func runIdentify(ctx context.Context, a *app, args []string, stdout io.Writer) error {
	var opts convert.IdentifyOptions
	flags := flag.NewFlagSet(name+" identify", flag.ContinueOnError)
	flags.SetOutput(stdout)
	flags.BoolVar(&opts.IgnoreWarnings, "ignore-warnings", false, "report a corrupt EXIF block instead of failing")
	flags.BoolVar(&opts.Debug, "debug", false, "log at debug level")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if flags.NArg() != 1 {
		return errors.New("usage: " + name + " identify [-ignore-warnings] [-debug] FILE")
	}

	data, err := os.ReadFile(flags.Arg(0))
	if err != nil {
		return err
	}
	opts.SrcData = data
	info, err := a.conv.Identify(ctx, opts)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}
