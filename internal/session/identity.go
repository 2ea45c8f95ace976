package session

import (
	"crypto/rand"
	"encoding/hex"
)

// colorPalette is the fixed set of cursor colors handed out to users.
var colorPalette = []string{
	"#C72626", // red
	"#1C978F", // teal
	"#1E7D92", // blue
	"#B3471D", // orange
	"#24B792", // green
	"#CBAA27", // yellow
	"#9A26CB", // purple
	"#278BC1", // sky blue
}

// newUserID mints a 16-char hex identity scoped to one connection.
// Reconnects get a fresh one; there is no cross-connection identity.
func newUserID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(b)
}

func pickColor() string {
	b := make([]byte, 1)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand unavailable: " + err.Error())
	}
	return colorPalette[int(b[0])%len(colorPalette)]
}
