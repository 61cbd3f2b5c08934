package domain

import (
	"fmt"
	"strconv"
	"time"
)

// MaxDuration is the largest duration the three fields can express.
const MaxDuration = 99*time.Hour + 59*time.Minute + 59*time.Second

// DurationSnapshot holds the three field values verbatim, indexed by FieldKind.
type DurationSnapshot [3]string

// Value returns the captured value of field k.
func (s DurationSnapshot) Value(k FieldKind) string {
	return s[k]
}

// InsertResult describes the outcome of a single-character insertion.
type InsertResult struct {
	Accepted   bool
	Overflowed bool
	// Caret is the caret position in the originating field after the insert.
	Caret int
}

// DeleteResult describes the outcome of a backspace.
type DeleteResult struct {
	// Moved is true when the caret sat at position 0 and focus moved to the
	// successor field instead of deleting anything.
	Moved   bool
	Changed bool
	Focus   FieldKind
	Caret   int
}

// DurationEditor owns the seconds, minutes and hours fields together with
// the focused field and its caret.
type DurationEditor struct {
	values         [3]string
	focused        FieldKind
	caret          int
	hasFocus       bool
	defaultMinutes string
}

// NewDurationEditor creates an editor with empty fields. defaultMinutes is
// the minutes placeholder shown while every field is empty.
func NewDurationEditor(defaultMinutes int) *DurationEditor {
	if defaultMinutes < 0 || defaultMinutes > 99 {
		defaultMinutes = 5
	}
	return &DurationEditor{
		focused:        FieldSeconds,
		defaultMinutes: fmt.Sprintf("%02d", defaultMinutes),
	}
}

// Value returns the literal digits of field k.
func (e *DurationEditor) Value(k FieldKind) string {
	return e.values[k]
}

// Values returns all three literal values.
func (e *DurationEditor) Values() DurationSnapshot {
	return DurationSnapshot(e.values)
}

// IsEmpty reports whether all three fields are empty.
func (e *DurationEditor) IsEmpty() bool {
	return e.values[FieldSeconds] == "" && e.values[FieldMinutes] == "" && e.values[FieldHours] == ""
}

// Placeholder returns the text shown by field k while it is empty. The
// minutes placeholder suggests the default timer until any field holds a
// value, then switches to a plain zero fill.
func (e *DurationEditor) Placeholder(k FieldKind) string {
	if k == FieldMinutes && e.IsEmpty() {
		return e.defaultMinutes
	}
	return "00"
}

// Effective returns the numeric reading of field k: its digits if present,
// else its placeholder.
func (e *DurationEditor) Effective(k FieldKind) int {
	if v := e.values[k]; v != "" {
		return parseDigits(v)
	}
	return parseDigits(e.Placeholder(k))
}

// LabelMuted reports whether the unit label of field k is drawn in the
// placeholder colour.
func (e *DurationEditor) LabelMuted(k FieldKind) bool {
	return e.values[k] == ""
}

// TotalSeconds sums the effective readings of all fields.
func (e *DurationEditor) TotalSeconds() int {
	total := 0
	for _, k := range FieldOrder {
		total += e.Effective(k) * k.Multiplier()
	}
	return total
}

// Duration returns TotalSeconds as a time.Duration.
func (e *DurationEditor) Duration() time.Duration {
	return time.Duration(e.TotalSeconds()) * time.Second
}

// Insert proposes inserting ch at caret position pos of field k. Non-digits
// are rejected without mutation. When the field would exceed two digits the
// rightmost two stay and the leading digits carry into the successor,
// cascading upward; hours drops what it cannot hold.
func (e *DurationEditor) Insert(k FieldKind, pos int, ch rune) InsertResult {
	old := e.values[k]
	pos = clamp(pos, 0, len(old))

	candidate := old[:pos] + string(ch) + old[pos:]
	if !HasOnlyDigits(candidate) {
		return InsertResult{Caret: pos}
	}

	if len(candidate) <= FieldWidth {
		e.values[k] = candidate
		e.syncCaret(k, pos+1)
		return InsertResult{Accepted: true, Caret: pos + 1}
	}

	e.carry(k, candidate)
	e.syncCaret(k, pos)
	return InsertResult{Accepted: true, Overflowed: true, Caret: pos}
}

// carry stores value into field k, pushing any digits beyond the field
// width into the successor fields.
func (e *DurationEditor) carry(k FieldKind, value string) {
	for {
		if len(value) <= FieldWidth {
			e.values[k] = value
			return
		}
		split := len(value) - FieldWidth
		e.values[k] = value[split:]
		overflow := value[:split]

		next, ok := k.Successor()
		if !ok {
			return
		}
		k = next
		value = e.values[k] + overflow
	}
}

// Type inserts ch at the caret of the focused field.
func (e *DurationEditor) Type(ch rune) InsertResult {
	return e.Insert(e.focused, e.caret, ch)
}

// DeleteBackward handles a backspace in field k with the selection
// [start, end). A collapsed caret at 0 moves focus to the successor field
// with its caret at the end and changes nothing.
func (e *DurationEditor) DeleteBackward(k FieldKind, start, end int) DeleteResult {
	if start == 0 && end == 0 {
		next, ok := k.Successor()
		if !ok {
			return DeleteResult{Focus: k}
		}
		e.Focus(next)
		return DeleteResult{Moved: true, Focus: next, Caret: e.caret}
	}

	v := e.values[k]
	start = clamp(start, 0, len(v))
	end = clamp(end, start, len(v))
	if start == end {
		if start == 0 {
			return DeleteResult{Focus: k}
		}
		start--
	}
	e.values[k] = v[:start] + v[end:]
	e.syncCaret(k, start)
	return DeleteResult{Changed: true, Focus: k, Caret: start}
}

// Backspace deletes before the caret of the focused field.
func (e *DurationEditor) Backspace() DeleteResult {
	return e.DeleteBackward(e.focused, e.caret, e.caret)
}

// Focused returns the field holding input focus.
func (e *DurationEditor) Focused() FieldKind {
	return e.focused
}

// HasFocus reports whether any field holds input focus.
func (e *DurationEditor) HasFocus() bool {
	return e.hasFocus
}

// Caret returns the caret position in the focused field.
func (e *DurationEditor) Caret() int {
	return e.caret
}

// Focus moves input focus to field k with the caret at the end of its text.
func (e *DurationEditor) Focus(k FieldKind) {
	e.focused = k
	e.caret = len(e.values[k])
	e.hasFocus = true
}

// Blur drops input focus, keeping the caret for the next Focus.
func (e *DurationEditor) Blur() {
	e.hasFocus = false
}

// SetCaret places the caret of the focused field, clamped to its text.
func (e *DurationEditor) SetCaret(pos int) {
	e.caret = clamp(pos, 0, len(e.values[e.focused]))
}

// MoveCaret shifts the caret by delta. Moving past the left edge enters the
// next larger unit at its end; past the right edge enters the next smaller
// unit at its start.
func (e *DurationEditor) MoveCaret(delta int) {
	pos := e.caret + delta
	switch {
	case pos < 0:
		if next, ok := e.focused.Successor(); ok {
			e.Focus(next)
			return
		}
		e.caret = 0
	case pos > len(e.values[e.focused]):
		if prev, ok := e.focused.Predecessor(); ok {
			e.Focus(prev)
			e.caret = 0
			return
		}
		e.caret = len(e.values[e.focused])
	default:
		e.caret = pos
	}
}

// Set assigns a validated value to field k.
func (e *DurationEditor) Set(k FieldKind, value string) error {
	if err := ValidateFieldValue(value); err != nil {
		return fmt.Errorf("%s: %w", k, err)
	}
	e.values[k] = value
	e.syncCaret(k, e.caret)
	return nil
}

// SetDuration fills the fields from d, dropping any fraction of a second.
// Zero units are left empty; a zero d writes "0" into seconds so the fields
// read as an explicit zero rather than falling back to the placeholder.
func (e *DurationEditor) SetDuration(d time.Duration) error {
	if d < 0 || (d > 0 && d < time.Second) {
		return ErrInvalidDuration
	}
	if d > MaxDuration {
		return ErrDurationTooLong
	}
	total := int(d / time.Second)
	if total == 0 {
		e.values = [3]string{"0", "", ""}
		e.syncCaret(e.focused, e.caret)
		return nil
	}
	parts := [3]int{total % 60, (total / 60) % 60, total / 3600}
	for _, k := range FieldOrder {
		if parts[k] == 0 {
			e.values[k] = ""
		} else {
			e.values[k] = strconv.Itoa(parts[k])
		}
	}
	e.syncCaret(e.focused, e.caret)
	return nil
}

// Clear empties all fields.
func (e *DurationEditor) Clear() {
	e.values = [3]string{}
	e.caret = 0
}

// Snapshot captures the field values verbatim.
func (e *DurationEditor) Snapshot() DurationSnapshot {
	return DurationSnapshot(e.values)
}

// Restore puts back values captured by Snapshot.
func (e *DurationEditor) Restore(s DurationSnapshot) {
	e.values = [3]string(s)
	e.syncCaret(e.focused, e.caret)
}

// Decrement applies one borrow-decrement step to the visible fields. The
// most significant unit that reaches zero is blanked; units refilled by a
// borrow read "59".
func (e *DurationEditor) Decrement() {
	s := e.Effective(FieldSeconds)
	m := e.Effective(FieldMinutes)
	h := e.Effective(FieldHours)

	switch {
	case s > 0:
		if s == 1 && m == 0 && h == 0 {
			e.values[FieldSeconds] = ""
		} else {
			e.values[FieldSeconds] = strconv.Itoa(s - 1)
		}
	case m > 0:
		if m == 1 && h == 0 {
			e.values[FieldMinutes] = ""
		} else {
			e.values[FieldMinutes] = strconv.Itoa(m - 1)
		}
		e.values[FieldSeconds] = "59"
	case h > 0:
		if h == 1 {
			e.values[FieldHours] = ""
		} else {
			e.values[FieldHours] = strconv.Itoa(h - 1)
		}
		e.values[FieldMinutes] = "59"
		e.values[FieldSeconds] = "59"
	}
	e.syncCaret(e.focused, e.caret)
}

// syncCaret updates the caret when field k is the focused one.
func (e *DurationEditor) syncCaret(k FieldKind, pos int) {
	if k != e.focused {
		return
	}
	e.caret = clamp(pos, 0, len(e.values[k]))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
