package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/kylelemons/godebug/pretty"
	flac "github.com/mewkiz/flacpic"
	"github.com/mewkiz/flacpic/meta"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

func runList(args []string) error {
	var (
		// print picture metadata as YAML documents.
		asYAML bool
		// include a hex dump of the image data.
		withData bool
		// dump the decoded blocks in Go syntax.
		debug bool
	)
	fs := newFlagSet("list", "FILE.flac...")
	fs.BoolVar(&asYAML, "yaml", false, "print picture metadata as YAML")
	fs.BoolVar(&withData, "data", false, "include a hex dump of the image data")
	fs.BoolVar(&debug, "debug", false, "dump decoded picture blocks")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return errors.New("no FLAC file specified")
	}
	for _, path := range fs.Args() {
		if err := list(os.Stdout, path, asYAML, withData, debug); err != nil {
			return err
		}
	}
	return nil
}

// list prints the picture metadata blocks of the given FLAC file.
func list(w io.Writer, path string, asYAML, withData, debug bool) error {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return err
	}
	defer stream.Close()

	if asYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		for blockNum, block := range stream.Blocks {
			pic, ok := block.Body.(*meta.Picture)
			if !ok {
				continue
			}
			if err := enc.Encode(newPictureInfo(path, blockNum, pic)); err != nil {
				return errors.WithStack(err)
			}
		}
		return errors.WithStack(enc.Close())
	}

	for blockNum, block := range stream.Blocks {
		pic, ok := block.Body.(*meta.Picture)
		if !ok {
			continue
		}
		listHeader(w, block.Header, blockNum)
		listPicture(w, pic, withData)
		if debug {
			p := *pic
			p.Data = nil
			fmt.Fprintln(w, pretty.Sprint(p))
		}
	}
	return nil
}

// pictureInfo is the YAML representation of a picture metadata block.
type pictureInfo struct {
	File       string `yaml:"file"`
	Block      int    `yaml:"block"`
	Type       uint32 `yaml:"type"`
	TypeName   string `yaml:"type_name"`
	MIME       string `yaml:"mime"`
	Desc       string `yaml:"description"`
	Width      uint32 `yaml:"width"`
	Height     uint32 `yaml:"height"`
	Depth      uint32 `yaml:"color_depth"`
	NPalColors uint32 `yaml:"colors"`
	DataLen    int    `yaml:"data_length"`
	BlockLen   int64  `yaml:"block_length"`
}

func newPictureInfo(path string, blockNum int, pic *meta.Picture) pictureInfo {
	return pictureInfo{
		File:       path,
		Block:      blockNum,
		Type:       uint32(pic.Type),
		TypeName:   pic.Type.String(),
		MIME:       pic.MIME,
		Desc:       pic.Desc,
		Width:      pic.Width,
		Height:     pic.Height,
		Depth:      pic.Depth,
		NPalColors: pic.NPalColors,
		DataLen:    len(pic.Data),
		BlockLen:   pic.Len(),
	}
}

// Example:
//
//	METADATA block #2
//	  type: 6 (PICTURE)
//	  is last: false
//	  length: 234611
func listHeader(w io.Writer, hdr meta.Header, blockNum int) {
	fmt.Fprintf(w, "METADATA block #%d\n", blockNum)
	fmt.Fprintf(w, "  type: %d (PICTURE)\n", hdr.Type)
	fmt.Fprintf(w, "  is last: %t\n", hdr.IsLast)
	fmt.Fprintf(w, "  length: %d\n", hdr.Length)
}

// Example:
//
//	  type: 3 (Cover (front))
//	  MIME type: image/jpeg
//	  description:
//	  width: 500
//	  height: 500
//	  depth: 24
//	  colors: 0 (unindexed)
//	  data length: 234569
//	  data:
//	    00000000  ff d8 ff e0 00 10 4a 46  49 46 00 01 01 01 00 60  |......JFIF.....`|
func listPicture(w io.Writer, pic *meta.Picture, withData bool) {
	fmt.Fprintf(w, "  type: %d (%v)\n", uint32(pic.Type), pic.Type)
	fmt.Fprintf(w, "  MIME type: %s\n", pic.MIME)
	fmt.Fprintf(w, "  description: %s\n", pic.Desc)
	fmt.Fprintf(w, "  width: %d\n", pic.Width)
	fmt.Fprintf(w, "  height: %d\n", pic.Height)
	fmt.Fprintf(w, "  depth: %d\n", pic.Depth)
	fmt.Fprintf(w, "  colors: %d", pic.NPalColors)
	if pic.NPalColors == 0 {
		fmt.Fprint(w, " (unindexed)")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  data length: %d\n", len(pic.Data))
	if withData {
		fmt.Fprintln(w, "  data:")
		fmt.Fprint(w, hex.Dump(pic.Data))
	}
}
