package main

import (
	"bufio"
	"os"
	"path/filepath"

	flac "github.com/mewkiz/flacpic"
	"github.com/mewkiz/flacpic/meta"
	"github.com/mewkiz/pkg/osutil"
	"github.com/mewkiz/pkg/pathutil"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// embedFlags holds the command line flags of the embed command.
type embedFlags struct {
	force    bool
	output   string
	config   string
	typ      uint32
	desc     string
	mime     string
	width    uint32
	height   uint32
	depth    uint32
	colors   uint32
	perField bool
}

func runEmbed(args []string) error {
	var f embedFlags
	fs := newFlagSet("embed", "IMAGE FILE.flac")
	fs.BoolVarP(&f.force, "force", "f", false, "force overwrite of the output file")
	fs.StringVarP(&f.output, "output", "o", "", "output FLAC file (default FILE_pic.flac)")
	fs.StringVar(&f.config, "config", "", "YAML file with defaults for the picture fields")
	fs.Uint32Var(&f.typ, "type", uint32(meta.PictureFrontCover), "picture type (ID3v2 APIC)")
	fs.StringVar(&f.desc, "desc", "", "picture description")
	fs.StringVar(&f.mime, "mime", "", "MIME type (derived from the image if missing)")
	fs.Uint32Var(&f.width, "width", 0, "width in pixels (derived from the image if missing)")
	fs.Uint32Var(&f.height, "height", 0, "height in pixels (derived from the image if missing)")
	fs.Uint32Var(&f.depth, "depth", 24, "color depth in bits-per-pixel")
	fs.Uint32Var(&f.colors, "colors", 0, "number of colors of indexed-color images")
	fs.BoolVar(&f.perField, "per-field", false, "only derive MIME type, width and height not given, accepting zero values")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return errors.New("expected IMAGE and FILE.flac arguments")
	}
	conf := DefaultConfig()
	if f.config != "" {
		var err error
		if conf, err = LoadConfig(f.config); err != nil {
			return err
		}
	}
	opts := pictureOptions(fs, &f, conf)
	imgPath, flacPath := fs.Arg(0), fs.Arg(1)
	outPath := f.output
	if outPath == "" {
		outPath = pathutil.TrimExt(flacPath) + "_pic.flac"
	}
	return embed(imgPath, flacPath, outPath, f.force, opts...)
}

// pictureOptions returns the picture options of the embed command. Flags given
// on the command line override the configuration file.
func pictureOptions(fs *pflag.FlagSet, f *embedFlags, conf *Config) []meta.PictureOption {
	typ, desc, depth, colors, perField := conf.Type, conf.Desc, conf.Depth, conf.Colors, conf.PerField
	if fs.Changed("type") {
		typ = f.typ
	}
	if fs.Changed("desc") {
		desc = f.desc
	}
	if fs.Changed("depth") {
		depth = f.depth
	}
	if fs.Changed("colors") {
		colors = f.colors
	}
	if fs.Changed("per-field") {
		perField = f.perField
	}
	opts := []meta.PictureOption{
		meta.WithType(meta.PictureType(typ)),
		meta.WithDesc(desc),
		meta.WithDepth(depth),
		meta.WithColors(colors),
	}
	if fs.Changed("mime") {
		opts = append(opts, meta.WithMIME(f.mime))
	}
	if fs.Changed("width") {
		opts = append(opts, meta.WithWidth(f.width))
	}
	if fs.Changed("height") {
		opts = append(opts, meta.WithHeight(f.height))
	}
	if perField {
		opts = append(opts, meta.DerivePerField())
	}
	return opts
}

// embed stores a copy of the FLAC file at flacPath to outPath, with the image
// at imgPath added as a picture metadata block.
func embed(imgPath, flacPath, outPath string, force bool, opts ...meta.PictureOption) error {
	data, err := os.ReadFile(imgPath)
	if err != nil {
		return errors.WithStack(err)
	}
	pic, err := meta.NewPicture(data, opts...)
	if err != nil {
		return errors.Wrapf(err, "unable to create picture from %q", imgPath)
	}

	stream, err := flac.ParseFile(flacPath)
	if err != nil {
		return err
	}
	defer stream.Close()
	stream.AddPicture(pic)

	if !force && osutil.Exists(outPath) {
		return errors.Errorf("FLAC file %q already present; use -f flag to force overwrite", outPath)
	}
	// outPath may be flacPath, whose audio frames are still to be read; write
	// to a temporary file in the same directory and rename it when done.
	w, err := os.CreateTemp(filepath.Dir(outPath), ".flacpic-*.flac")
	if err != nil {
		return errors.WithStack(err)
	}
	tmpPath := w.Name()
	defer os.Remove(tmpPath)
	defer w.Close()
	bw := bufio.NewWriter(w)
	if err := flac.Encode(bw, stream); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return errors.WithStack(err)
	}
	if err := w.Close(); err != nil {
		return errors.WithStack(err)
	}
	if err := stream.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(os.Rename(tmpPath, outPath))
}
