package editor

import (
	"github.com/pkg/errors"
)

// Replacement replaces Text[RangeStart:RangeEnd] with NewText.
// Offsets are byte offsets into the buffer text.
type Replacement struct {
	RangeStart int    `json:"range_start"`
	RangeEnd   int    `json:"range_end"`
	NewText    string `json:"new_text"`
}

// Apply returns text with the replacement applied
func (r Replacement) Apply(text string) (string, error) {
	if r.RangeStart < 0 || r.RangeEnd < r.RangeStart || r.RangeEnd > len(text) {
		return "", errors.Wrapf(ErrRangeOutOfDate, "range [%d,%d) on %d bytes", r.RangeStart, r.RangeEnd, len(text))
	}
	return text[:r.RangeStart] + r.NewText + text[r.RangeEnd:], nil
}

// Changes reports whether applying r to text would alter it.
// An out-of-range replacement counts as a change so the writer surfaces the error.
func (r Replacement) Changes(text string) bool {
	if r.RangeStart < 0 || r.RangeEnd < r.RangeStart || r.RangeEnd > len(text) {
		return true
	}
	return text[r.RangeStart:r.RangeEnd] != r.NewText
}
