// Package store persists finished recordings to disk as WAV or FLAC.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"murmur/encoder"
	"murmur/log"
)

type Format string

const (
	FormatWAV  Format = "wav"
	FormatFLAC Format = "flac"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatWAV, FormatFLAC:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown recording format %q (want wav or flac)", s)
	}
}

type Store struct {
	Dir    string
	Format Format
}

func New(dir string, format Format) *Store {
	return &Store{Dir: dir, Format: format}
}

// Save encodes raw PCM and writes it under the store directory,
// creating the directory if needed. Returns the written path and size.
func (s *Store) Save(sessionID string, pcm []byte) (string, int, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("creating recordings dir: %w", err)
	}

	var data []byte
	switch s.Format {
	case FormatFLAC:
		var err error
		data, err = encoder.EncodeFLAC(pcm)
		if err != nil {
			return "", 0, fmt.Errorf("encoding flac: %w", err)
		}
	default:
		data = encoder.EncodeWAV(pcm)
	}

	name := fmt.Sprintf("recording_%s_%s.%s",
		time.Now().Format("20060102_150405"), sessionID, s.Format)
	path := filepath.Join(s.Dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", 0, fmt.Errorf("writing recording: %w", err)
	}
	log.Infof("saved recording %s (%d bytes)", path, len(data))
	return path, len(data), nil
}
