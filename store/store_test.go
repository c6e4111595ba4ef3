package store

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"murmur/encoder"
)

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"wav", "flac"} {
		f, err := ParseFormat(s)
		if err != nil {
			t.Errorf("ParseFormat(%q): %v", s, err)
		}
		if string(f) != s {
			t.Errorf("ParseFormat(%q) = %q", s, f)
		}
	}
	if _, err := ParseFormat("mp3"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestSaveWAV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "recordings")
	s := New(dir, FormatWAV)

	pcm := make([]byte, 16000) // 0.5s of silence
	path, n, err := s.Save("abc123", pcm)
	if err != nil {
		t.Fatal(err)
	}
	if n != encoder.WAVHeaderSize+len(pcm) {
		t.Errorf("size = %d, want %d", n, encoder.WAVHeaderSize+len(pcm))
	}
	base := filepath.Base(path)
	if !strings.HasPrefix(base, "recording_") || !strings.HasSuffix(base, "_abc123.wav") {
		t.Errorf("unexpected filename %q", base)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data[:4], []byte("RIFF")) {
		t.Errorf("file does not start with RIFF header: %q", data[:4])
	}
}

func TestSaveFLAC(t *testing.T) {
	s := New(t.TempDir(), FormatFLAC)
	pcm := make([]byte, 16000)
	path, _, err := s.Save("def456", pcm)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(path, ".flac") {
		t.Errorf("unexpected extension on %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("fLaC")) {
		t.Errorf("file does not start with fLaC marker: %q", data[:4])
	}
}

func TestSaveCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")
	s := New(dir, FormatWAV)
	if _, _, err := s.Save("x", make([]byte, 320)); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("dir not created: %v", err)
	}
}
