//go:build darwin

package clipboard

import "github.com/micmonay/keybd_event"

func InitPaste() error { return nil }

// Paste sends Cmd+V to the focused window.
func Paste() error {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return err
	}
	kb.SetKeys(keybd_event.VK_V)
	kb.HasSuper(true)
	return kb.Launching()
}
