// Package flac provides access to the metadata blocks of FLAC (Free Lossless
// Audio Codec) files, with a focus on embedded pictures. [1]
//
// The basic structure of a FLAC bitstream is:
//   - The four byte string signature "fLaC".
//   - The StreamInfo metadata block.
//   - Zero or more other metadata blocks.
//   - One or more audio frames.
//
// The audio frames are not decoded; they are copied verbatim when the stream is
// encoded.
//
// [1]: https://www.xiph.org/flac/format.html
package flac

import (
	"bytes"
	"io"
	"os"

	"github.com/mewkiz/flacpic/meta"
	"github.com/pkg/errors"
)

// flacSignature marks the beginning of a FLAC stream.
var flacSignature = []byte("fLaC")

// A Stream contains the metadata blocks of a FLAC stream and provides access to
// its (undecoded) audio frames.
type Stream struct {
	// Metadata blocks; the first is always a StreamInfo block.
	Blocks []*meta.Block
	// Underlying io.Reader, positioned at the first audio frame once the
	// metadata blocks have been parsed.
	r io.Reader
	// Underlying io.Closer of the stream, or nil.
	c io.Closer
}

// NewStream validates the FLAC signature of the provided io.Reader and returns
// a handle to the FLAC stream. Call Stream.ParseBlocks to parse the metadata
// blocks.
func NewStream(r io.Reader) (*Stream, error) {
	// Verify FLAC signature (size: 4 bytes).
	buf := make([]byte, len(flacSignature))
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errors.WithStack(err)
	}
	if !bytes.Equal(buf, flacSignature) {
		return nil, errors.Errorf("flac.NewStream: invalid FLAC signature; expected %q, got %q", flacSignature, buf)
	}
	s := &Stream{r: r}
	if c, ok := r.(io.Closer); ok {
		s.c = c
	}
	return s, nil
}

// ParseStream reads from the provided io.Reader and returns a FLAC stream with
// all metadata blocks parsed.
func ParseStream(r io.Reader) (*Stream, error) {
	s, err := NewStream(r)
	if err != nil {
		return nil, err
	}
	if err := s.ParseBlocks(); err != nil {
		return nil, err
	}
	return s, nil
}

// ParseFile opens the provided file and returns a FLAC stream with all metadata
// blocks parsed. Callers should close the stream when done.
func ParseFile(path string) (*Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	s, err := ParseStream(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "unable to parse %q", path)
	}
	return s, nil
}

// ParseBlocks reads and parses the metadata blocks of the stream.
func (s *Stream) ParseBlocks() error {
	for isFirst := true; ; isFirst = false {
		block, err := meta.ReadBlock(s.r)
		if err != nil {
			return err
		}
		// The first block type must be StreamInfo.
		if isFirst && block.Type != meta.TypeStreamInfo {
			return errors.Errorf("flac.Stream.ParseBlocks: first block type is invalid; expected %d (StreamInfo), got %d", meta.TypeStreamInfo, block.Type)
		}
		s.Blocks = append(s.Blocks, block)
		if block.IsLast {
			return nil
		}
	}
}

// Pictures returns the Picture blocks of the stream.
func (s *Stream) Pictures() []*meta.Picture {
	var pics []*meta.Picture
	for _, block := range s.Blocks {
		if pic, ok := block.Body.(*meta.Picture); ok {
			pics = append(pics, pic)
		}
	}
	return pics
}

// AddPicture appends a Picture block to the metadata blocks of the stream.
func (s *Stream) AddPicture(pic *meta.Picture) {
	hdr := pic.Header
	hdr.Type = meta.TypePicture
	s.Blocks = append(s.Blocks, &meta.Block{Header: hdr, Body: pic})
}

// Close closes the underlying reader of the stream.
func (s *Stream) Close() error {
	if s.c != nil {
		c := s.c
		s.c = nil
		return errors.WithStack(c.Close())
	}
	return nil
}
