// Package meta implements encoding and decoding of FLAC metadata blocks, with
// full support for the Picture metadata block.
//
// The body of every other block type is kept as raw bytes, so that a metadata
// chain can be read and written back unchanged.
//
// ref: https://www.xiph.org/flac/format.html#metadata_block
package meta

import (
	"bytes"
	"io"

	"github.com/icza/bitio"
	"github.com/pkg/errors"
)

// HeaderLen is the length in bytes of an encoded metadata block header.
const HeaderLen = 4

// maxBodyLen is the maximum length of a metadata block body, as limited by the
// 24-bit length field of the block header.
const maxBodyLen = 1<<24 - 1

// A Header contains type and length information about a metadata block.
//
// Header format (pseudo code):
//
//	type METADATA_BLOCK_HEADER struct {
//	   is_last    bool
//	   type       uint7
//	   length     uint24
//	}
//
// ref: https://www.xiph.org/flac/format.html#metadata_block_header
type Header struct {
	// IsLast is true if this block is the last metadata block before the audio
	// frames, and false otherwise.
	IsLast bool
	// Metadata block body type.
	Type BlockType
	// Length of body data in bytes.
	Length int64
}

// BlockType is used to identify the metadata block type.
type BlockType uint8

// Metadata block body types.
const (
	TypeStreamInfo    BlockType = 0
	TypePadding       BlockType = 1
	TypeApplication   BlockType = 2
	TypeSeekTable     BlockType = 3
	TypeVorbisComment BlockType = 4
	TypeCueSheet      BlockType = 5
	TypePicture       BlockType = 6
)

// typeInvalid is the block type reserved to avoid confusion with a frame sync
// code.
const typeInvalid = 127

// blockTypeName is a map from BlockType to name.
var blockTypeName = map[BlockType]string{
	TypeStreamInfo:    "stream info",
	TypePadding:       "padding",
	TypeApplication:   "application",
	TypeSeekTable:     "seek table",
	TypeVorbisComment: "vorbis comment",
	TypeCueSheet:      "cue sheet",
	TypePicture:       "picture",
}

func (t BlockType) String() string {
	if s, ok := blockTypeName[t]; ok {
		return s
	}
	return "<unknown block type>"
}

// ParseHeader parses the metadata block header at the start of buf.
func ParseHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderLen {
		return Header{}, &FieldError{Field: "header", Offset: 0, Err: ErrTruncatedInput}
	}
	br := bitio.NewReader(bytes.NewReader(buf[:HeaderLen]))
	// 1 bit: IsLast.
	x, err := br.ReadBits(1)
	if err != nil {
		return Header{}, errors.WithStack(err)
	}
	hdr := Header{IsLast: x != 0}

	// 7 bits: Type.
	//    0:     Streaminfo
	//    1:     Padding
	//    2:     Application
	//    3:     Seektable
	//    4:     Vorbis_comment
	//    5:     Cuesheet
	//    6:     Picture
	//    7-126: reserved
	//    127:   invalid, to avoid confusion with a frame sync code
	x, err = br.ReadBits(7)
	if err != nil {
		return Header{}, errors.WithStack(err)
	}
	if x == typeInvalid {
		return Header{}, errors.New("meta.ParseHeader: invalid block type")
	}
	hdr.Type = BlockType(x)

	// 24 bits: Length.
	x, err = br.ReadBits(24)
	if err != nil {
		return Header{}, errors.WithStack(err)
	}
	hdr.Length = int64(x)
	return hdr, nil
}

// MarshalBinary returns the 4 byte encoding of the block header.
func (hdr Header) MarshalBinary() ([]byte, error) {
	buf := new(bytes.Buffer)
	bw := bitio.NewWriter(buf)
	if err := writeHeader(bw, hdr); err != nil {
		return nil, err
	}
	if err := bw.Close(); err != nil {
		return nil, errors.WithStack(err)
	}
	return buf.Bytes(), nil
}

// writeHeader writes the header of a metadata block.
func writeHeader(bw *bitio.Writer, hdr Header) error {
	if hdr.Length < 0 || hdr.Length > maxBodyLen {
		return &FieldError{Field: "header length", Err: ErrFieldTooLarge}
	}
	if hdr.Type >= typeInvalid {
		return errors.Errorf("meta.writeHeader: invalid block type %d", hdr.Type)
	}

	// 1 bit: IsLast.
	if err := bw.WriteBool(hdr.IsLast); err != nil {
		return errors.WithStack(err)
	}

	// 7 bits: Type.
	if err := bw.WriteBits(uint64(hdr.Type), 7); err != nil {
		return errors.WithStack(err)
	}

	// 24 bits: Length.
	if err := bw.WriteBits(uint64(hdr.Length), 24); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// A Block is a metadata block, consisting of a block header and a block body.
type Block struct {
	// Metadata block header.
	Header
	// Metadata block body: *Picture or Raw.
	Body interface{}
}

// Raw is the unparsed body of a metadata block.
type Raw []byte

// ReadBlock reads one metadata block from r. The body of a Picture block is
// parsed; the body of any other block type is returned as Raw.
//
// The whole body declared by the block header is consumed from r. Bytes of a
// Picture block following the image data are dropped, and the returned header
// keeps the declared length; WriteBlock writes the picture without them.
func ReadBlock(r io.Reader) (*Block, error) {
	buf := make([]byte, HeaderLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, &FieldError{Field: "header", Offset: 0, Err: ErrTruncatedInput}
		}
		return nil, err
	}
	hdr, err := ParseHeader(buf)
	if err != nil {
		return nil, err
	}

	// The whole block is kept in one buffer, since ParsePicture expects the
	// block header as prefix.
	block := make([]byte, HeaderLen+hdr.Length)
	copy(block, buf)
	if _, err := io.ReadFull(r, block[HeaderLen:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, &FieldError{Field: "block body", Offset: HeaderLen, Err: ErrTruncatedInput}
		}
		return nil, errors.WithStack(err)
	}
	if hdr.Type != TypePicture {
		return &Block{Header: hdr, Body: Raw(block[HeaderLen:])}, nil
	}
	// block is owned by this function; no need to copy the picture data.
	pic, err := ParsePictureNoCopy(block)
	if err != nil {
		return nil, errors.Wrap(err, "meta.ReadBlock: invalid picture block")
	}
	return &Block{Header: hdr, Body: pic}, nil
}

// WriteBlock writes the metadata block to w. The length of the block header is
// recomputed from the body; the IsLast flag and block type are kept.
func WriteBlock(w io.Writer, block *Block) error {
	switch body := block.Body.(type) {
	case *Picture:
		pic := *body
		pic.Header.IsLast = block.IsLast
		pic.Header.Type = block.Type
		_, err := pic.WriteTo(w)
		return err
	case Raw:
		hdr := block.Header
		hdr.Length = int64(len(body))
		buf, err := hdr.MarshalBinary()
		if err != nil {
			return err
		}
		if _, err := w.Write(buf); err != nil {
			return errors.WithStack(err)
		}
		if _, err := w.Write(body); err != nil {
			return errors.WithStack(err)
		}
		return nil
	default:
		return errors.Errorf("meta.WriteBlock: unsupported block body type %T", body)
	}
}
