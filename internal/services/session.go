package services

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"

	"spinwheel/internal/models"

	"github.com/google/uuid"
)

// Errors returned by Session operations. Callers match them with errors.Is.
var (
	ErrValidation      = errors.New("invalid entry")
	ErrNotFound        = errors.New("entry not found")
	ErrNoUndoAvailable = errors.New("no draw to undo")
	ErrInvalidState    = errors.New("invalid state for action")
)

// Session is the state of one wheel: its entries, mode flags, last draw and history.
// A Session is not safe for concurrent use; WheelService serializes access to it.
type Session struct {
	entries  []models.Entry
	settings models.Settings

	lastResult *models.DrawRecord
	history    []models.DrawRecord

	// snapshot is the composition restored by ResetToSnapshot in elimination mode.
	snapshot []models.Entry

	// decided is the entry whose draw emptied the wheel in elimination mode.
	decided *models.Entry

	// issued maps every id this session has handed out to the entry's latest name.
	issued map[string]string

	now   func() time.Time
	rng   *rand.Rand
	newID func() string
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces time.Now as the source of draw timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithRand sets the random source used by Pick and TossCoin.
func WithRand(rng *rand.Rand) Option {
	return func(s *Session) { s.rng = rng }
}

// WithIDGenerator replaces uuid.NewString for entry ids.
func WithIDGenerator(fn func() string) Option {
	return func(s *Session) { s.newID = fn }
}

// NewSession creates an empty session in reward mode with sound enabled.
func NewSession(opts ...Option) *Session {
	s := &Session{
		entries:  make([]models.Entry, 0),
		history:  make([]models.DrawRecord, 0),
		issued:   make(map[string]string),
		settings: models.Settings{Mode: models.ModeReward, SoundEnabled: true},
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s
}

func normalizeName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("%w: name is empty", ErrValidation)
	}
	if utf8.RuneCountInString(trimmed) > models.MaxNameLength {
		return "", fmt.Errorf("%w: name longer than %d characters", ErrValidation, models.MaxNameLength)
	}
	return trimmed, nil
}

// recolor reassigns every color from position 0. It runs after any change to
// membership or order so that neighbours never share a color.
func (s *Session) recolor() {
	for i := range s.entries {
		s.entries[i].Color = models.ColorAt(i)
	}
}

func (s *Session) indexOf(id string) int {
	for i, e := range s.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (s *Session) elimination() bool {
	return s.settings.Mode == models.ModeElimination
}

func copyEntries(in []models.Entry) []models.Entry {
	out := make([]models.Entry, len(in))
	copy(out, in)
	return out
}

// AddOne appends a new entry and returns it.
func (s *Session) AddOne(name string) (models.Entry, error) {
	added, err := s.AddMany([]string{name})
	if err != nil {
		return models.Entry{}, err
	}
	return added[0], nil
}

// AddMany appends one entry per name, in order. Either every name is added or,
// if any name is invalid, none is.
func (s *Session) AddMany(names []string) ([]models.Entry, error) {
	clean := make([]string, len(names))
	for i, name := range names {
		n, err := normalizeName(name)
		if err != nil {
			return nil, fmt.Errorf("name %d: %w", i, err)
		}
		clean[i] = n
	}

	added := make([]models.Entry, len(clean))
	base := len(s.entries)
	for i, name := range clean {
		added[i] = models.Entry{ID: s.newID(), Name: name, Color: models.ColorAt(base + i)}
		s.issued[added[i].ID] = name
	}
	s.entries = append(s.entries, added...)
	if len(added) > 0 {
		s.decided = nil
		if s.elimination() {
			// Newly ingested entries belong to the round's starting composition.
			s.snapshot = append(s.snapshot, added...)
		}
	}
	return copyEntries(added), nil
}

// Rename changes an entry's name in place.
func (s *Session) Rename(id, name string) (models.Entry, error) {
	i := s.indexOf(id)
	if i < 0 {
		return models.Entry{}, fmt.Errorf("rename %s: %w", id, ErrNotFound)
	}
	n, err := normalizeName(name)
	if err != nil {
		return models.Entry{}, err
	}
	s.entries[i].Name = n
	s.issued[id] = n
	return s.entries[i], nil
}

// Remove deletes an entry and recolors the rest.
func (s *Session) Remove(id string) (models.Entry, error) {
	i := s.indexOf(id)
	if i < 0 {
		return models.Entry{}, fmt.Errorf("remove %s: %w", id, ErrNotFound)
	}
	s.decided = nil
	return s.removeAt(i), nil
}

func (s *Session) removeAt(i int) models.Entry {
	removed := s.entries[i]
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	s.recolor()
	return removed
}

// ClearAll empties the wheel. Mode, flags, history and snapshot are kept.
func (s *Session) ClearAll() {
	s.entries = make([]models.Entry, 0)
	s.decided = nil
}

// ReplaceAll substitutes the whole collection. Entries without an id get a new
// one; colors are always recomputed. In elimination mode the snapshot follows.
// An id this session issued earlier is only accepted for that same entry: it
// must still be on the wheel or carry the name it was last known by.
func (s *Session) ReplaceAll(entries []models.Entry) ([]models.Entry, error) {
	next := make([]models.Entry, len(entries))
	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		n, err := normalizeName(e.Name)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if e.ID == "" {
			e.ID = s.newID()
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("%w: duplicate id %s", ErrValidation, e.ID)
		}
		if prev, ok := s.issued[e.ID]; ok && prev != n && s.indexOf(e.ID) < 0 {
			return nil, fmt.Errorf("%w: id %s already used by %q", ErrValidation, e.ID, prev)
		}
		seen[e.ID] = true
		next[i] = models.Entry{ID: e.ID, Name: n}
	}

	for _, e := range next {
		s.issued[e.ID] = e.Name
	}
	s.entries = next
	s.decided = nil
	s.recolor()
	if s.elimination() {
		s.snapshot = copyEntries(s.entries)
	}
	return copyEntries(s.entries), nil
}

// FindDuplicates returns the candidates whose name matches an existing entry,
// ignoring case. It does not modify the session.
func (s *Session) FindDuplicates(candidates []string) []string {
	existing := make(map[string]bool, len(s.entries))
	for _, e := range s.entries {
		existing[strings.ToLower(e.Name)] = true
	}
	dups := make([]string, 0)
	for _, c := range candidates {
		if existing[strings.ToLower(strings.TrimSpace(c))] {
			dups = append(dups, c)
		}
	}
	return dups
}

// SetMode switches the draw policy. Entering elimination captures the current
// entries as the snapshot, starting a new round.
func (s *Session) SetMode(mode models.Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: unknown mode %q", ErrValidation, mode)
	}
	if mode == models.ModeElimination && !s.elimination() {
		s.snapshot = copyEntries(s.entries)
	}
	s.settings.Mode = mode
	return nil
}

// SetRemoveAfterDraw sets whether reward-mode draws take the winner off the wheel.
func (s *Session) SetRemoveAfterDraw(v bool) { s.settings.RemoveAfterDraw = v }

// SetSoundEnabled stores the sound preference for the presentation layer.
func (s *Session) SetSoundEnabled(v bool) { s.settings.SoundEnabled = v }

// Pick chooses an entry uniformly at random. The caller animates to it and
// then hands it back to RecordDrawResult.
func (s *Session) Pick() (models.Entry, error) {
	if len(s.entries) == 0 {
		return models.Entry{}, fmt.Errorf("%w: no entries to draw from", ErrInvalidState)
	}
	return s.entries[s.rng.Intn(len(s.entries))], nil
}

// TossCoin flips a fair coin. It needs no entries and records nothing.
func (s *Session) TossCoin() models.CoinSide {
	if s.rng.Intn(2) == 0 {
		return models.CoinHeads
	}
	return models.CoinTails
}

// RecordDrawResult stores a completed draw and applies the mode policy.
func (s *Session) RecordDrawResult(winner models.Entry) (models.DrawOutcome, error) {
	i := s.indexOf(winner.ID)
	if i < 0 {
		return models.DrawOutcome{}, fmt.Errorf("record draw %s: %w", winner.ID, ErrNotFound)
	}
	won := s.entries[i]
	rec := models.DrawRecord{Entry: won, Timestamp: s.now()}
	s.history = append(s.history, rec)
	s.lastResult = &rec

	out := models.DrawOutcome{Winner: won}
	if s.elimination() || s.settings.RemoveAfterDraw {
		s.removeAt(i)
		out.Removed = true
	}
	s.decided = nil
	if s.elimination() && len(s.entries) == 0 {
		s.decided = &won
	}
	out.Remaining = len(s.entries)
	out.Terminal = s.terminal()
	return out, nil
}

// terminal reports the decided winner of an elimination round, if any: the
// only entry left, or the entry whose draw emptied the wheel.
func (s *Session) terminal() *models.Entry {
	if !s.elimination() {
		return nil
	}
	switch {
	case len(s.entries) == 1:
		e := s.entries[0]
		return &e
	case len(s.entries) == 0 && s.decided != nil:
		e := *s.decided
		return &e
	}
	return nil
}

// CanUndo reports whether UndoLastDraw would succeed.
func (s *Session) CanUndo() bool {
	return s.lastResult != nil && s.indexOf(s.lastResult.Entry.ID) < 0
}

// UndoLastDraw puts the last drawn entry back at the end of the wheel.
func (s *Session) UndoLastDraw() (models.Entry, error) {
	if !s.CanUndo() {
		return models.Entry{}, ErrNoUndoAvailable
	}
	restored := s.lastResult.Entry
	s.entries = append(s.entries, restored)
	s.recolor()
	s.lastResult = nil
	s.decided = nil
	return s.entries[len(s.entries)-1], nil
}

// ResetToSnapshot restores the elimination round's starting entries and
// forgets the draws made since.
func (s *Session) ResetToSnapshot() ([]models.Entry, error) {
	if !s.elimination() {
		return nil, fmt.Errorf("%w: reset needs elimination mode", ErrInvalidState)
	}
	if len(s.snapshot) == 0 {
		return nil, fmt.Errorf("%w: no snapshot to reset to", ErrInvalidState)
	}
	s.entries = copyEntries(s.snapshot)
	s.recolor()
	s.history = make([]models.DrawRecord, 0)
	s.lastResult = nil
	s.decided = nil
	return copyEntries(s.entries), nil
}

// ResetHistory forgets past draws without touching the entries.
func (s *Session) ResetHistory() {
	s.history = make([]models.DrawRecord, 0)
	s.lastResult = nil
	s.decided = nil
}

// Entries returns the wheel in order.
func (s *Session) Entries() []models.Entry { return copyEntries(s.entries) }

// Snapshot returns the entries ResetToSnapshot would restore.
func (s *Session) Snapshot() []models.Entry { return copyEntries(s.snapshot) }

// Settings returns the mode and flags.
func (s *Session) Settings() models.Settings { return s.settings }

// History returns every recorded draw, oldest first.
func (s *Session) History() []models.DrawRecord {
	out := make([]models.DrawRecord, len(s.history))
	copy(out, s.history)
	return out
}

// LastResult returns the draw UndoLastDraw would reverse, or nil.
func (s *Session) LastResult() *models.DrawRecord {
	if s.lastResult == nil {
		return nil
	}
	rec := *s.lastResult
	return &rec
}

// State bundles everything a renderer needs in one read.
func (s *Session) State() models.SessionState {
	return models.SessionState{
		Entries:       s.Entries(),
		Settings:      s.settings,
		CanUndo:       s.CanUndo(),
		LastResult:    s.LastResult(),
		HistoryLength: len(s.history),
		SnapshotSize:  len(s.snapshot),
		Terminal:      s.terminal(),
	}
}
