//go:build !linux && !darwin

package interaction

import "golang.org/x/term"

type rawState = term.State

func (kr *KeyboardReader) enableRawMode() error {
	oldState, err := term.MakeRaw(kr.fd)
	if err != nil {
		return err
	}
	kr.rawState = oldState
	return nil
}

func (kr *KeyboardReader) disableRawMode() error {
	if kr.rawState == nil || kr.fd < 0 {
		return nil
	}
	return term.Restore(kr.fd, kr.rawState)
}
