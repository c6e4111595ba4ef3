//go:build !linux && !darwin

package clipboard

import "github.com/micmonay/keybd_event"

func InitPaste() error { return nil }

// Paste sends Ctrl+V to the focused window.
func Paste() error {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return err
	}
	kb.SetKeys(keybd_event.VK_V)
	kb.HasCTRL(true)
	return kb.Launching()
}
