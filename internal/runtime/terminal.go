package runtime

import (
	"fmt"
	"io"

	"golang.org/x/term"
)

// PushContainerMarker and PopContainerMarker emit OSC 777 sequences that
// terminal emulators (foot, kitty, wezterm) use to visually distinguish a
// shell running inside a karapace environment from the host shell. They are
// no-ops when fd isn't a terminal; w itself is not checked.
func PushContainerMarker(w io.Writer, fd uintptr, label string) {
	if !term.IsTerminal(int(fd)) {
		return
	}
	fmt.Fprintf(w, "\x1b]777;container;push;%s\x1b\\", label)
}

func PopContainerMarker(w io.Writer, fd uintptr) {
	if !term.IsTerminal(int(fd)) {
		return
	}
	fmt.Fprint(w, "\x1b]777;container;pop\x1b\\")
}
