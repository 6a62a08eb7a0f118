// Package form parses flat string-keyed form submissions into typed,
// validated values.
package form

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ValidationError reports a field that failed intake validation. It marks a
// contract violation (a field the submitting form always supplies), not a
// user mistake.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Msg)
}

// RequireText returns the trimmed value of field, or a ValidationError if
// the field is absent or blank.
func RequireText(v url.Values, field string) (string, error) {
	s := strings.TrimSpace(v.Get(field))
	if s == "" {
		return "", &ValidationError{Field: field, Msg: "missing required field"}
	}
	return s, nil
}

// OptionalText returns the trimmed value of field, or "" if the field is
// absent or contains only whitespace.
func OptionalText(v url.Values, field string) string {
	return strings.TrimSpace(v.Get(field))
}

// DateLayout is the wire format submitted by <input type="date">.
const DateLayout = "2006-01-02"

// RequireDate parses field as a calendar date.
func RequireDate(v url.Values, field string) (time.Time, error) {
	raw, err := RequireText(v, field)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, &ValidationError{Field: field, Msg: "invalid date"}
	}
	return t, nil
}

// PaintDraft is an unvalidated paint record parsed from a repeating form
// group. Blank subfields stay "".
type PaintDraft struct {
	Room   string
	Brand  string
	Finish string
	Colour string
	Notes  string
}

// Empty reports whether every subfield of the draft is blank. Callers drop
// empty drafts rather than validating them.
func (d PaintDraft) Empty() bool {
	return d.Room == "" && d.Brand == "" && d.Finish == "" && d.Colour == "" && d.Notes == ""
}

var paintFieldPattern = regexp.MustCompile(`^paintRecords\.(\d+)\.(room|brand|finish|colour|notes)$`)

// PaintDrafts collects all fields matching paintRecords.<index>.<subfield>
// into drafts, ordered by numeric index ascending. Submission order of the
// keys is irrelevant.
func PaintDrafts(v url.Values) []PaintDraft {
	grouped := make(map[int]*PaintDraft)

	for key := range v {
		m := paintFieldPattern.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		index, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}

		draft, ok := grouped[index]
		if !ok {
			draft = &PaintDraft{}
			grouped[index] = draft
		}

		val := OptionalText(v, key)
		switch m[2] {
		case "room":
			draft.Room = val
		case "brand":
			draft.Brand = val
		case "finish":
			draft.Finish = val
		case "colour":
			draft.Colour = val
		case "notes":
			draft.Notes = val
		}
	}

	indexes := make([]int, 0, len(grouped))
	for index := range grouped {
		indexes = append(indexes, index)
	}
	sort.Ints(indexes)

	drafts := make([]PaintDraft, 0, len(indexes))
	for _, index := range indexes {
		drafts = append(drafts, *grouped[index])
	}
	return drafts
}
