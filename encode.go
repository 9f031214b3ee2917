package flac

import (
	"io"
	"log"

	"github.com/mewkiz/flacpic/meta"
	"github.com/mewkiz/pkg/errutil"
	"github.com/pkg/errors"
)

// Encode writes the FLAC stream to w. The IsLast flag of each metadata block
// header is recomputed, and the audio frames are copied verbatim from the
// source stream.
func Encode(w io.Writer, stream *Stream) error {
	if len(stream.Blocks) == 0 || stream.Blocks[0].Type != meta.TypeStreamInfo {
		return errors.New("flac.Encode: first metadata block must be StreamInfo")
	}

	// Store FLAC signature.
	if _, err := w.Write(flacSignature); err != nil {
		return errutil.Err(err)
	}

	// Store metadata blocks.
	blocks := make([]*meta.Block, 0, len(stream.Blocks))
	for _, block := range stream.Blocks {
		if block.Body == nil {
			log.Printf("ignoring metadata block of type %d without body", block.Type)
			continue
		}
		blocks = append(blocks, block)
	}
	for i, block := range blocks {
		b := *block
		b.IsLast = i == len(blocks)-1
		if err := meta.WriteBlock(w, &b); err != nil {
			return errors.Wrapf(err, "flac.Encode: unable to write %v block %d", b.Type, i)
		}
	}

	// Copy the audio frames verbatim from the source stream.
	if stream.r != nil {
		if _, err := io.Copy(w, stream.r); err != nil {
			return errutil.Err(err)
		}
	}
	return nil
}
