package main

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mewkiz/flacpic/meta"
)

// writeFLAC writes a FLAC stream with only a StreamInfo block to path.
func writeFLAC(t *testing.T, path string) {
	t.Helper()
	buf := new(bytes.Buffer)
	buf.WriteString("fLaC")
	block := &meta.Block{Header: meta.Header{IsLast: true, Type: meta.TypeStreamInfo}, Body: meta.Raw(make([]byte, 34))}
	if err := meta.WriteBlock(buf, block); err != nil {
		t.Fatal(err)
	}
	buf.Write([]byte{0xFF, 0xF8, 0x00})
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flacpic.yml")
	const data = "type: 4\ndescription: back cover\nper_field: true\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	conf, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	want := Config{Type: 4, Desc: "back cover", Depth: 24, PerField: true}
	if *conf != want {
		t.Errorf("config mismatch; expected %#v, got %#v", want, *conf)
	}
}

func TestEmbedExtract(t *testing.T) {
	dir := t.TempDir()
	flacPath := filepath.Join(dir, "song.flac")
	writeFLAC(t, flacPath)

	imgPath := filepath.Join(dir, "cover.png")
	img := new(bytes.Buffer)
	if err := png.Encode(img, image.NewGray(image.Rect(0, 0, 16, 16))); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(imgPath, img.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	outPath := filepath.Join(dir, "song_pic.flac")
	if err := embed(imgPath, flacPath, outPath, false, meta.WithDesc("front")); err != nil {
		t.Fatal(err)
	}
	if err := embed(imgPath, flacPath, outPath, false); err == nil {
		t.Errorf("expected error when output file is present")
	}

	out := new(bytes.Buffer)
	if err := list(out, outPath, false, false, false); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"MIME type: image/png", "width: 16", "height: 16", "description: front", "type: 3 (Cover (front))"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("listing does not contain %q:\n%s", want, out)
		}
	}

	out.Reset()
	if err := list(out, outPath, true, false, false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "mime: image/png") {
		t.Errorf("YAML listing does not contain MIME type:\n%s", out)
	}

	paths, err := extract(outPath, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 1 || paths[0] != filepath.Join(dir, "song_pic_0.png") {
		t.Fatalf("extracted paths mismatch; got %q", paths)
	}
	got, err := os.ReadFile(paths[0])
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, img.Bytes()) {
		t.Errorf("extracted image data mismatch")
	}
}

func TestEmbedInPlace(t *testing.T) {
	dir := t.TempDir()
	flacPath := filepath.Join(dir, "song.flac")
	writeFLAC(t, flacPath)

	imgPath := filepath.Join(dir, "cover.png")
	img := new(bytes.Buffer)
	if err := png.Encode(img, image.NewGray(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(imgPath, img.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	if err := embed(imgPath, flacPath, flacPath, true); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(flacPath)
	if err != nil {
		t.Fatal(err)
	}
	if frames := []byte{0xFF, 0xF8, 0x00}; !bytes.HasSuffix(got, frames) {
		t.Errorf("audio frames lost; expected suffix % X, got % X", frames, got)
	}
	if want := 4 + meta.HeaderLen + 34; len(got) <= want+3 {
		t.Errorf("picture block missing; got %d bytes", len(got))
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("expected only song.flac and cover.png in %q, got %d entries", dir, len(entries))
	}

	out := new(bytes.Buffer)
	if err := list(out, flacPath, false, false, false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "MIME type: image/png") {
		t.Errorf("listing does not contain picture:\n%s", out)
	}
}
