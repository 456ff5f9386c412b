package editor

import (
	"testing"

	"github.com/pkg/errors"
)

func TestReplacement_Apply(t *testing.T) {
	tests := []struct {
		name    string
		r       Replacement
		text    string
		want    string
		wantErr bool
	}{
		{name: "insert at top", r: Replacement{0, 0, "head\n"}, text: "body", want: "head\nbody"},
		{name: "replace prefix", r: Replacement{0, 3, "new"}, text: "old body", want: "new body"},
		{name: "clear prefix", r: Replacement{0, 4, ""}, text: "old body", want: "body"},
		{name: "end past text", r: Replacement{0, 10, "x"}, text: "short", wantErr: true},
		{name: "inverted range", r: Replacement{3, 1, "x"}, text: "short", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.r.Apply(tt.text)
			if tt.wantErr {
				if !errors.Is(err, ErrRangeOutOfDate) {
					t.Fatalf("expected ErrRangeOutOfDate, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestReplacement_Changes(t *testing.T) {
	text := "block\nbody"
	if (Replacement{0, 6, "block\n"}).Changes(text) {
		t.Error("identical replacement should not count as a change")
	}
	if !(Replacement{0, 6, "other\n"}).Changes(text) {
		t.Error("different replacement should count as a change")
	}
	if (Replacement{0, 0, ""}).Changes(text) {
		t.Error("empty insert should not count as a change")
	}
}
