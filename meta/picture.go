package meta

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/icza/bitio"
	"github.com/mewkiz/flacpic/imageinfo"
	"github.com/pkg/errors"
)

// A Picture metadata block is for storing pictures associated with the file,
// most commonly cover art from CDs. There may be more than one Picture block in
// a file.
//
// Picture format (pseudo code):
//
//	type METADATA_BLOCK_PICTURE struct {
//	   header      METADATA_BLOCK_HEADER
//	   type        uint32
//	   mime_length uint32
//	   mime_string [mime_length]byte
//	   desc_length uint32
//	   desc_string [desc_length]byte
//	   width       uint32
//	   height      uint32
//	   color_depth uint32
//	   color_count uint32
//	   data_length uint32
//	   data        [data_length]byte
//	}
//
// All integers are big-endian.
//
// ref: https://www.xiph.org/flac/format.html#metadata_block_picture
type Picture struct {
	// Metadata block header.
	Header Header
	// Picture type according to the ID3v2 APIC frame.
	Type PictureType
	// MIME type string. The MIME type may also be --> to signify that the data
	// part is a URL of the picture instead of the picture data itself.
	MIME string
	// Description of the picture, in UTF-8.
	Desc string
	// Image width in pixels.
	Width uint32
	// Image height in pixels.
	Height uint32
	// Color depth of the image in bits-per-pixel.
	Depth uint32
	// Number of colors used for indexed-color pictures (e.g. GIF), or 0 for
	// non-indexed pictures.
	NPalColors uint32
	// Image data.
	Data []byte
}

// Sizes in bytes of the fixed-width fields of a Picture block body.
const (
	typeLen       = 4
	mimeLenLen    = 4
	descLenLen    = 4
	widthLen      = 4
	heightLen     = 4
	depthLen      = 4
	nPalColorsLen = 4
	dataLenLen    = 4
)

// maxFieldLen is the maximum length of a length-prefixed field.
const maxFieldLen = 1<<32 - 1

// Len returns the length in bytes of the encoded Picture block, including the
// block header.
func (pic *Picture) Len() int64 {
	return HeaderLen + pic.BodyLen()
}

// BodyLen returns the length in bytes of the encoded Picture block body.
func (pic *Picture) BodyLen() int64 {
	return typeLen + mimeLenLen + int64(len(pic.MIME)) + descLenLen +
		int64(len(pic.Desc)) + widthLen + heightLen + depthLen + nPalColorsLen +
		dataLenLen + int64(len(pic.Data))
}

// --- [ Construction ] --------------------------------------------------------

// A PictureOption overrides a default of NewPicture.
type PictureOption func(*pictureConfig)

// pictureConfig holds the field values of a picture under construction.
type pictureConfig struct {
	hdr       Header
	hasHdr    bool
	typ       PictureType
	mime      string
	hasMIME   bool
	desc      string
	width     uint32
	hasWidth  bool
	height    uint32
	hasHeight bool
	depth     uint32
	colors    uint32
	inspector imageinfo.Inspector
	perField  bool
}

// WithHeader sets the metadata block header.
func WithHeader(hdr Header) PictureOption {
	return func(c *pictureConfig) {
		c.hdr = hdr
		c.hasHdr = true
	}
}

// WithType sets the picture type.
func WithType(typ PictureType) PictureOption {
	return func(c *pictureConfig) { c.typ = typ }
}

// WithMIME sets the MIME type.
func WithMIME(mime string) PictureOption {
	return func(c *pictureConfig) {
		c.mime = mime
		c.hasMIME = true
	}
}

// WithDesc sets the description.
func WithDesc(desc string) PictureOption {
	return func(c *pictureConfig) { c.desc = desc }
}

// WithWidth sets the image width in pixels.
func WithWidth(width uint32) PictureOption {
	return func(c *pictureConfig) {
		c.width = width
		c.hasWidth = true
	}
}

// WithHeight sets the image height in pixels.
func WithHeight(height uint32) PictureOption {
	return func(c *pictureConfig) {
		c.height = height
		c.hasHeight = true
	}
}

// WithDepth sets the color depth in bits-per-pixel.
func WithDepth(depth uint32) PictureOption {
	return func(c *pictureConfig) { c.depth = depth }
}

// WithColors sets the number of colors of an indexed-color picture.
func WithColors(n uint32) PictureOption {
	return func(c *pictureConfig) { c.colors = n }
}

// WithInspector sets the inspector used to derive the MIME type and dimensions
// of the image data. A nil inspector selects imageinfo.Default.
func WithInspector(inspector imageinfo.Inspector) PictureOption {
	return func(c *pictureConfig) {
		if inspector == nil {
			inspector = imageinfo.Default
		}
		c.inspector = inspector
	}
}

// DerivePerField makes NewPicture treat every MIME type, width and height
// option as supplied, even when its value is empty or zero. The image data is
// then inspected only if one of the three options is missing.
func DerivePerField() PictureOption {
	return func(c *pictureConfig) { c.perField = true }
}

// NewPicture returns a new Picture block for the given image data.
//
// Unless a MIME type, width and height are all supplied with non-zero values,
// the image data is inspected and every one of the three that was not supplied
// is taken from the image. Use DerivePerField to accept supplied zero values
// as is. ErrUnrecognizedImageFormat is returned if the image data has to be
// inspected and its format is not recognized.
//
// The defaults are picture type PictureFrontCover, an empty description, a
// color depth of 24 and 0 colors. The image data is not copied.
func NewPicture(data []byte, opts ...PictureOption) (*Picture, error) {
	c := &pictureConfig{
		typ:       PictureFrontCover,
		depth:     24,
		inspector: imageinfo.Default,
	}
	for _, opt := range opts {
		opt(c)
	}

	supplied := c.hasMIME && c.hasWidth && c.hasHeight
	if !c.perField {
		supplied = supplied && c.mime != "" && c.width != 0 && c.height != 0
	}
	if !supplied {
		info, err := c.inspector.Inspect(data)
		if err != nil {
			return nil, errors.WithStack(&inspectError{err: err})
		}
		if !c.hasMIME {
			c.mime = info.MIME
		}
		if !c.hasWidth {
			c.width = info.Width
		}
		if !c.hasHeight {
			c.height = info.Height
		}
	}

	pic := &Picture{
		Header:     c.hdr,
		Type:       c.typ,
		MIME:       c.mime,
		Desc:       c.desc,
		Width:      c.width,
		Height:     c.height,
		Depth:      c.depth,
		NPalColors: c.colors,
		Data:       data,
	}
	if !c.hasHdr {
		pic.Header = Header{Type: TypePicture, Length: pic.BodyLen()}
	}
	return pic, nil
}

// --- [ Decoding ] ------------------------------------------------------------

// ParsePicture parses the Picture block, including its block header, at the
// start of buf. The image data of the returned picture is a copy; buf may be
// reused once ParsePicture returns.
//
// The field values are not validated; any picture type and MIME type is
// accepted. Bytes following the image data are ignored.
//
// ErrMalformedLength is reported for a length prefix whose byte range cannot be
// addressed by an int. Where int is 64 bits wide, any 32-bit length fits, so a
// length prefix reaching past the end of buf reports ErrTruncatedInput instead.
func ParsePicture(buf []byte) (*Picture, error) {
	pic, err := ParsePictureNoCopy(buf)
	if err != nil {
		return nil, err
	}
	data := make([]byte, len(pic.Data))
	copy(data, pic.Data)
	pic.Data = data
	return pic, nil
}

// ParsePictureNoCopy is like ParsePicture, but the image data of the returned
// picture refers to the underlying array of buf. The caller must keep buf
// unmodified for as long as the picture is in use.
func ParsePictureNoCopy(buf []byte) (*Picture, error) {
	hdr, err := ParseHeader(buf)
	if err != nil {
		return nil, err
	}
	dec := &decoder{buf: buf, off: HeaderLen}
	pic := &Picture{Header: hdr}

	// 32 bits: Type.
	x, err := dec.uint32("type")
	if err != nil {
		return nil, err
	}
	pic.Type = PictureType(x)

	// 32 bits: (MIME type length).
	// (MIME type length) bytes: MIME.
	mime, err := dec.lenPrefixed("mime length", "mime")
	if err != nil {
		return nil, err
	}
	pic.MIME = string(mime)

	// 32 bits: (description length).
	// (description length) bytes: Desc.
	desc, err := dec.lenPrefixed("description length", "description")
	if err != nil {
		return nil, err
	}
	pic.Desc = string(desc)

	// 32 bits: Width.
	if pic.Width, err = dec.uint32("width"); err != nil {
		return nil, err
	}

	// 32 bits: Height.
	if pic.Height, err = dec.uint32("height"); err != nil {
		return nil, err
	}

	// 32 bits: Depth.
	if pic.Depth, err = dec.uint32("color depth"); err != nil {
		return nil, err
	}

	// 32 bits: NPalColors.
	if pic.NPalColors, err = dec.uint32("colors"); err != nil {
		return nil, err
	}

	// 32 bits: (data length).
	// (data length) bytes: Data.
	if pic.Data, err = dec.lenPrefixed("data length", "data"); err != nil {
		return nil, err
	}
	return pic, nil
}

// UnmarshalBinary decodes the Picture block in data into pic. The image data is
// copied.
func (pic *Picture) UnmarshalBinary(data []byte) error {
	p, err := ParsePicture(data)
	if err != nil {
		return err
	}
	*pic = *p
	return nil
}

// maxInt is the maximum value of int.
const maxInt = int(^uint(0) >> 1)

// A decoder reads big-endian fields from an in-memory block.
type decoder struct {
	buf []byte
	// Offset of the next field in buf.
	off int
}

// uint32 reads a 32-bit unsigned integer.
func (dec *decoder) uint32(field string) (uint32, error) {
	if len(dec.buf)-dec.off < 4 {
		return 0, dec.fieldErr(field, ErrTruncatedInput)
	}
	x := binary.BigEndian.Uint32(dec.buf[dec.off:])
	dec.off += 4
	return x, nil
}

// lenPrefixed reads a 32-bit length followed by that many bytes. The returned
// slice refers to the underlying array of dec.buf.
func (dec *decoder) lenPrefixed(lenField, field string) ([]byte, error) {
	n, err := dec.uint32(lenField)
	if err != nil {
		return nil, err
	}
	end, ok := spanEnd(dec.off, n)
	if !ok {
		return nil, dec.fieldErr(field, ErrMalformedLength)
	}
	if end > len(dec.buf) {
		return nil, dec.fieldErr(field, errors.Wrapf(ErrTruncatedInput, "need %d bytes, have %d", n, len(dec.buf)-dec.off))
	}
	buf := dec.buf[dec.off:end:end]
	dec.off = end
	return buf, nil
}

// spanEnd returns the end offset of n bytes starting at off, or false if the
// end offset overflows int.
func spanEnd(off int, n uint32) (int, bool) {
	if off < 0 || uint64(n) > uint64(maxInt-off) {
		return 0, false
	}
	return off + int(n), true
}

func (dec *decoder) fieldErr(field string, err error) error {
	return &FieldError{Field: field, Offset: int64(dec.off), Err: err}
}

// --- [ Encoding ] ------------------------------------------------------------

// Encode returns the encoding of the Picture block, including its block header.
//
// The length of the encoded block header is that of the encoded body,
// regardless of pic.Header.Length.
func (pic *Picture) Encode() ([]byte, error) {
	if err := pic.checkLens(); err != nil {
		return nil, err
	}
	hdr := pic.Header
	hdr.Length = pic.BodyLen()
	buf := bytes.NewBuffer(make([]byte, 0, pic.Len()))
	bw := bitio.NewWriter(buf)

	// Store metadata block header.
	if err := writeHeader(bw, hdr); err != nil {
		return nil, err
	}

	// Store metadata block body.
	// 32 bits: Type.
	if err := bw.WriteBits(uint64(pic.Type), 32); err != nil {
		return nil, errors.WithStack(err)
	}

	// 32 bits: (MIME type length).
	if err := bw.WriteBits(uint64(len(pic.MIME)), 32); err != nil {
		return nil, errors.WithStack(err)
	}

	// (MIME type length) bytes: MIME.
	if _, err := bw.Write([]byte(pic.MIME)); err != nil {
		return nil, errors.WithStack(err)
	}

	// 32 bits: (description length).
	if err := bw.WriteBits(uint64(len(pic.Desc)), 32); err != nil {
		return nil, errors.WithStack(err)
	}

	// (description length) bytes: Desc.
	if _, err := bw.Write([]byte(pic.Desc)); err != nil {
		return nil, errors.WithStack(err)
	}

	// 32 bits: Width.
	if err := bw.WriteBits(uint64(pic.Width), 32); err != nil {
		return nil, errors.WithStack(err)
	}

	// 32 bits: Height.
	if err := bw.WriteBits(uint64(pic.Height), 32); err != nil {
		return nil, errors.WithStack(err)
	}

	// 32 bits: Depth.
	if err := bw.WriteBits(uint64(pic.Depth), 32); err != nil {
		return nil, errors.WithStack(err)
	}

	// 32 bits: NPalColors.
	if err := bw.WriteBits(uint64(pic.NPalColors), 32); err != nil {
		return nil, errors.WithStack(err)
	}

	// 32 bits: (data length).
	if err := bw.WriteBits(uint64(len(pic.Data)), 32); err != nil {
		return nil, errors.WithStack(err)
	}

	// (data length) bytes: Data.
	if _, err := bw.Write(pic.Data); err != nil {
		return nil, errors.WithStack(err)
	}

	// Flush pending bit writes.
	if err := bw.Close(); err != nil {
		return nil, errors.WithStack(err)
	}
	return buf.Bytes(), nil
}

// MarshalBinary returns the encoding of the Picture block.
func (pic *Picture) MarshalBinary() ([]byte, error) {
	return pic.Encode()
}

// WriteTo writes the encoding of the Picture block to w.
func (pic *Picture) WriteTo(w io.Writer) (int64, error) {
	buf, err := pic.Encode()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(buf)
	if err != nil {
		return int64(n), errors.WithStack(err)
	}
	return int64(n), nil
}

// checkLens verifies that the length of every length-prefixed field fits in
// 32 bits.
func (pic *Picture) checkLens() error {
	off := int64(HeaderLen + typeLen + mimeLenLen)
	if uint64(len(pic.MIME)) > maxFieldLen {
		return &FieldError{Field: "mime", Offset: off, Err: ErrFieldTooLarge}
	}
	off += int64(len(pic.MIME)) + descLenLen
	if uint64(len(pic.Desc)) > maxFieldLen {
		return &FieldError{Field: "description", Offset: off, Err: ErrFieldTooLarge}
	}
	off += int64(len(pic.Desc)) + widthLen + heightLen + depthLen + nPalColorsLen + dataLenLen
	if uint64(len(pic.Data)) > maxFieldLen {
		return &FieldError{Field: "data", Offset: off, Err: ErrFieldTooLarge}
	}
	return nil
}

// --- [ Picture type ] --------------------------------------------------------

// PictureType specifies the content of a picture, according to the ID3v2 APIC
// frame. Values outside of the named constants are reserved, but are kept as
// is when decoding and encoding.
type PictureType uint32

// Picture types.
const (
	PictureOther              PictureType = iota // Other
	PictureFileIcon                              // 32x32 pixels 'file icon' (PNG only)
	PictureOtherFileIcon                         // Other file icon
	PictureFrontCover                            // Cover (front)
	PictureBackCover                             // Cover (back)
	PictureLeafletPage                           // Leaflet page
	PictureMedia                                 // Media (e.g. label side of CD)
	PictureLeadArtist                            // Lead artist/lead performer/soloist
	PictureArtist                                // Artist/performer
	PictureConductor                             // Conductor
	PictureBand                                  // Band/Orchestra
	PictureComposer                              // Composer
	PictureLyricist                              // Lyricist/text writer
	PictureRecordingLocation                     // Recording Location
	PictureDuringRecording                       // During recording
	PictureDuringPerformance                     // During performance
	PictureScreenCapture                         // Movie/video screen capture
	PictureBrightColouredFish                    // A bright coloured fish
	PictureIllustration                          // Illustration
	PictureBandLogotype                          // Band/artist logotype
	PicturePublisherLogotype                     // Publisher/Studio logotype
)

// pictureTypeName is a map from PictureType to name.
var pictureTypeName = map[PictureType]string{
	PictureOther:              "Other",
	PictureFileIcon:           "32x32 pixels 'file icon' (PNG only)",
	PictureOtherFileIcon:      "Other file icon",
	PictureFrontCover:         "Cover (front)",
	PictureBackCover:          "Cover (back)",
	PictureLeafletPage:        "Leaflet page",
	PictureMedia:              "Media (e.g. label side of CD)",
	PictureLeadArtist:         "Lead artist/lead performer/soloist",
	PictureArtist:             "Artist/performer",
	PictureConductor:          "Conductor",
	PictureBand:               "Band/Orchestra",
	PictureComposer:           "Composer",
	PictureLyricist:           "Lyricist/text writer",
	PictureRecordingLocation:  "Recording Location",
	PictureDuringRecording:    "During recording",
	PictureDuringPerformance:  "During performance",
	PictureScreenCapture:      "Movie/video screen capture",
	PictureBrightColouredFish: "A bright coloured fish",
	PictureIllustration:       "Illustration",
	PictureBandLogotype:       "Band/artist logotype",
	PicturePublisherLogotype:  "Publisher/Studio logotype",
}

// Known reports whether t is one of the named picture types.
func (t PictureType) Known() bool {
	_, ok := pictureTypeName[t]
	return ok
}

func (t PictureType) String() string {
	if s, ok := pictureTypeName[t]; ok {
		return s
	}
	return fmt.Sprintf("reserved (%d)", uint32(t))
}
