// Package clipboard copies transcription results to the system
// clipboard and optionally pastes them into the focused window.
package clipboard

import cb "github.com/atotto/clipboard"

func Copy(text string) error {
	return cb.WriteAll(text)
}

func Read() (string, error) {
	return cb.ReadAll()
}
