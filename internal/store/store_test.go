package store

import (
	"testing"

	"codecollab/internal/models"
)

func TestRoomKeys(t *testing.T) {
	if got := codeKey("ab12cd"); got != "room:ab12cd:code" {
		t.Fatalf("unexpected code key: %q", got)
	}
	if got := usersKey("ab12cd"); got != "room:ab12cd:users" {
		t.Fatalf("unexpected users key: %q", got)
	}
	if got := cursorsKey("ab12cd"); got != "room:ab12cd:cursors" {
		t.Fatalf("unexpected cursors key: %q", got)
	}
}

func TestParseCursors(t *testing.T) {
	raw := map[string]string{
		"u1": `{"line":2,"column":3,"color":"#C72626"}`,
		"u2": `{"line":1,"column":0,"color":"#1C978F"}`,
	}
	cursors := parseCursors(raw)
	if len(cursors) != 2 {
		t.Fatalf("expected 2 cursors, got %d", len(cursors))
	}
	want := models.CursorPosition{Line: 2, Column: 3, Color: "#C72626"}
	if cursors["u1"] != want {
		t.Fatalf("unexpected cursor for u1: %#v", cursors["u1"])
	}
}

func TestParseCursorsSkipsCorruptEntries(t *testing.T) {
	raw := map[string]string{
		"good": `{"line":5,"column":1,"color":"#24B792"}`,
		"bad":  `{not json`,
	}
	cursors := parseCursors(raw)
	if len(cursors) != 1 {
		t.Fatalf("expected corrupt entry dropped, got %#v", cursors)
	}
	if _, ok := cursors["good"]; !ok {
		t.Fatalf("expected good entry kept, got %#v", cursors)
	}
}
