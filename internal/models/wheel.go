package models

import "time"

// MaxNameLength is the longest entry name, in runes, the wheel accepts.
const MaxNameLength = 50

// Palette holds the two colors entries alternate between.
// Position 0 of the wheel always gets Palette[0].
var Palette = [2]string{"#FF6B6B", "#4ECDC4"}

// ColorAt returns the palette color for a position in the entry list.
func ColorAt(position int) string {
	return Palette[position%len(Palette)]
}

// Mode decides what happens to an entry once it has been drawn.
type Mode string

const (
	// ModeReward keeps drawn entries unless RemoveAfterDraw is set.
	ModeReward Mode = "reward"
	// ModeElimination always removes the drawn entry.
	ModeElimination Mode = "elimination"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeReward || m == ModeElimination
}

// CoinSide is the outcome of a coin toss.
type CoinSide string

const (
	CoinHeads CoinSide = "heads"
	CoinTails CoinSide = "tails"
)

// Entry is one slice of the wheel.
type Entry struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// DrawRecord remembers one completed draw.
type DrawRecord struct {
	Entry     Entry     `json:"entry"`
	Timestamp time.Time `json:"timestamp"`
}

// Settings are the session flags exposed to the settings UI.
type Settings struct {
	Mode            Mode `json:"mode"`
	RemoveAfterDraw bool `json:"removeAfterDraw"` // only consulted in reward mode
	SoundEnabled    bool `json:"soundEnabled"`
}

// DrawOutcome describes what a recorded draw did to the session.
type DrawOutcome struct {
	Winner    Entry  `json:"winner"`
	Removed   bool   `json:"removed"`
	Remaining int    `json:"remaining"`
	Terminal  *Entry `json:"terminal,omitempty"` // set when an elimination round is decided
}

// SessionState is the read model handed to rendering collaborators.
type SessionState struct {
	Entries       []Entry     `json:"entries"`
	Settings      Settings    `json:"settings"`
	CanUndo       bool        `json:"canUndo"`
	LastResult    *DrawRecord `json:"lastResult,omitempty"`
	HistoryLength int         `json:"historyLength"`
	SnapshotSize  int         `json:"snapshotSize"`
	Terminal      *Entry      `json:"terminal,omitempty"`
}
