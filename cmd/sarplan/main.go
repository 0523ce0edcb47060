// sarplan prints the segment plan of an image under a storage profile, and
// lists or dumps the manifests of a local store.
//
//	sarplan --rows 250000 --cols 30000 --bands 2 --bytes-per-pixel 4
//	sarplan --config profile.yaml --rows 1000 --cols 1000 --json
//	sarplan --store /data/sar --list
//	sarplan --store /data/sar --show scene-42
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/hupe1980/sarstore"
	"github.com/hupe1980/sarstore/blobstore"
	"github.com/hupe1980/sarstore/codec"
	"github.com/hupe1980/sarstore/config"
	"github.com/hupe1980/sarstore/manifest"
	"github.com/hupe1980/sarstore/raster"
	"github.com/hupe1980/sarstore/segment"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type flags struct {
	configPath    string
	rows, cols    int64
	bands         int64
	bytesPerPixel int64
	bandSeq       bool
	maxRows       int64
	maxBytes      int64
	jsonOut       bool
	storeDir      string
	list          bool
	show          string
}

func run(ctx context.Context, args []string, out io.Writer) error {
	var f flags
	fs := pflag.NewFlagSet("sarplan", pflag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&f.configPath, "config", os.Getenv(config.EnvVar), "storage profile (default $"+config.EnvVar+")")
	fs.Int64Var(&f.rows, "rows", 0, "image rows")
	fs.Int64Var(&f.cols, "cols", 0, "image columns")
	fs.Int64Var(&f.bands, "bands", 1, "bands per pixel")
	fs.Int64Var(&f.bytesPerPixel, "bytes-per-pixel", 1, "bytes per pixel per band")
	fs.BoolVar(&f.bandSeq, "band-sequential", false, "band-sequential pixel layout")
	fs.Int64Var(&f.maxRows, "max-rows", 0, "override the rows-per-segment ceiling")
	fs.Int64Var(&f.maxBytes, "max-bytes", 0, "override the bytes-per-segment ceiling")
	fs.BoolVar(&f.jsonOut, "json", false, "print JSON")
	fs.StringVar(&f.storeDir, "store", "", "local store directory")
	fs.BoolVar(&f.list, "list", false, "list containers in --store")
	fs.StringVar(&f.show, "show", "", "print the manifest of a container in --store")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	profile := config.Default()
	if f.configPath != "" {
		p, err := config.LoadFile(f.configPath)
		if err != nil {
			return err
		}
		profile = p
	}
	if f.maxRows > 0 {
		profile.Segments.MaxRows = f.maxRows
	}
	if f.maxBytes > 0 {
		profile.Segments.MaxBytes = f.maxBytes
	}

	if f.storeDir != "" {
		return inspect(ctx, f, profile, out)
	}
	return plan(f, profile.Segments, out)
}

func plan(f flags, limits segment.Limits, out io.Writer) error {
	img := raster.Image{Rows: f.rows, Cols: f.cols, Bands: f.bands, BytesPerPixel: f.bytesPerPixel}
	if f.bandSeq {
		img.Layout = raster.BandSequential
	}
	p, err := segment.ForImage(img, limits)
	if err != nil {
		return err
	}
	if f.jsonOut {
		return writeJSON(out, p)
	}

	fmt.Fprintf(out, "image %dx%d, %d band(s) of %d byte(s), %s\n", img.Rows, img.Cols, img.Bands, img.BytesPerPixel, img.Layout)
	fmt.Fprintf(out, "limits: %d rows, %d bytes per segment\n\n", limits.MaxRows, limits.MaxBytes)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEGMENT\tSTART ROW\tEND ROW\tOFFSET\tSIZE")
	for _, s := range p.Segments {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\n", s.Index, s.StartRow, s.EndRow, s.FileOffset, s.Size)
	}
	return tw.Flush()
}

func inspect(ctx context.Context, f flags, profile *config.Profile, out io.Writer) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	manifests := manifest.NewStore(blobstore.NewLocalStore(f.storeDir), profile.Codec())

	switch {
	case f.list:
		names, err := manifests.List(ctx, "")
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Fprintln(out, n)
		}
		return nil
	case f.show != "":
		return show(ctx, manifests, f.show, out)
	default:
		return errors.New("--store needs --list or --show")
	}
}

// show prints the manifest of name, whichever kind it is.
func show(ctx context.Context, manifests *manifest.Store, name string, out io.Writer) error {
	img, err := manifests.LoadImage(ctx, name)
	if err == nil {
		return writeJSON(out, img)
	}
	if !errors.Is(err, sarstore.ErrInvalidDimension) {
		return err
	}
	ph, err := manifests.LoadPhaseHistory(ctx, name)
	if err != nil {
		return err
	}
	return writeJSON(out, ph)
}

func writeJSON(out io.Writer, v any) error {
	c, _ := codec.ByName("go-json")
	data, err := c.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s\n", data)
	return err
}
