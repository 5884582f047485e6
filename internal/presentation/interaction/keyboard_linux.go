//go:build linux

package interaction

import "golang.org/x/sys/unix"

type rawState = unix.Termios

func (kr *KeyboardReader) enableRawMode() error {
	oldState, err := unix.IoctlGetTermios(kr.fd, unix.TCGETS)
	if err != nil {
		return err
	}
	kr.rawState = oldState

	newState := *oldState
	// ISIG stays on so Ctrl+C still interrupts
	newState.Lflag &^= unix.ECHO | unix.ICANON | unix.IEXTEN
	newState.Iflag &^= unix.BRKINT | unix.ICRNL | unix.INPCK | unix.ISTRIP | unix.IXON
	newState.Cflag |= unix.CS8
	newState.Cc[unix.VMIN] = 1
	newState.Cc[unix.VTIME] = 0

	return unix.IoctlSetTermios(kr.fd, unix.TCSETS, &newState)
}

func (kr *KeyboardReader) disableRawMode() error {
	if kr.rawState == nil || kr.fd < 0 {
		return nil
	}
	return unix.IoctlSetTermios(kr.fd, unix.TCSETS, kr.rawState)
}
