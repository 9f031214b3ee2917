package main

import (
	"fmt"
	"log"
	"os"

	flac "github.com/mewkiz/flacpic"
	"github.com/mewkiz/flacpic/imageinfo"
	"github.com/mewkiz/pkg/osutil"
	"github.com/mewkiz/pkg/pathutil"
	"github.com/pkg/errors"
)

func runExtract(args []string) error {
	// force overwrite of image files if already present.
	var force bool
	fs := newFlagSet("extract", "FILE.flac...")
	fs.BoolVarP(&force, "force", "f", false, "force overwrite of image files")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return errors.New("no FLAC file specified")
	}
	for _, path := range fs.Args() {
		paths, err := extract(path, force)
		if err != nil {
			return err
		}
		for _, p := range paths {
			log.Printf("created %q", p)
		}
	}
	return nil
}

// extract writes the image data of each picture of the given FLAC file to
// FILE_N.EXT, and returns the paths of the created files.
func extract(path string, force bool) ([]string, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	var paths []string
	for i, pic := range stream.Pictures() {
		imgPath := fmt.Sprintf("%s_%d%s", pathutil.TrimExt(path), i, imageinfo.ExtensionFor(pic.MIME))
		if !force && osutil.Exists(imgPath) {
			return paths, errors.Errorf("image file %q already present; use -f flag to force overwrite", imgPath)
		}
		if err := os.WriteFile(imgPath, pic.Data, 0644); err != nil {
			return paths, errors.WithStack(err)
		}
		paths = append(paths, imgPath)
	}
	return paths, nil
}
