package anchor

import (
	"errors"
	"testing"

	"github.com/marginalia-dev/marginalia/internal/apperr"
)

func TestWrapRemove_RoundTrip(t *testing.T) {
	content := "# Title\n\nThis is a draft."
	wrapped, err := Wrap(content, 19, 24, "c1") // "draft"
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	if wrapped == content {
		t.Fatal("Wrap did not change content")
	}
	restored, err := Remove(wrapped, "c1")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if restored != content {
		t.Errorf("round trip = %q, want %q", restored, content)
	}
}

func TestFindAll_Basic(t *testing.T) {
	content := "before <!-- anchor-start:a1-->the span<!-- anchor-end:a1--> after"
	anchors := FindAll(content)
	if len(anchors) != 1 {
		t.Fatalf("len = %d, want 1", len(anchors))
	}
	a := anchors[0]
	if a.ID != "a1" {
		t.Errorf("id = %q", a.ID)
	}
	if a.AnchoredText != "the span" {
		t.Errorf("anchored text = %q", a.AnchoredText)
	}
	if content[a.Start:a.End] != "the span" {
		t.Errorf("span offsets wrong: %q", content[a.Start:a.End])
	}
}

func TestFindAll_OrphanStartDropped(t *testing.T) {
	content := "x <!-- anchor-start:lost--> no end marker here"
	if anchors := FindAll(content); len(anchors) != 0 {
		t.Errorf("orphan reported: %v", anchors)
	}
}

func TestFindAll_FirstEndWins(t *testing.T) {
	content := "<!-- anchor-start:d-->one<!-- anchor-end:d--> two<!-- anchor-end:d-->"
	anchors := FindAll(content)
	if len(anchors) != 1 {
		t.Fatalf("len = %d, want 1", len(anchors))
	}
	if anchors[0].AnchoredText != "one" {
		t.Errorf("anchored text = %q, want first-match %q", anchors[0].AnchoredText, "one")
	}
}

func TestFindAll_MultipleOrdered(t *testing.T) {
	content, err := Wrap("alpha beta gamma", 0, 5, "first")
	if err != nil {
		t.Fatal(err)
	}
	content, err = Wrap(content, len(content)-5, len(content), "second")
	if err != nil {
		t.Fatal(err)
	}
	anchors := FindAll(content)
	if len(anchors) != 2 {
		t.Fatalf("len = %d, want 2", len(anchors))
	}
	if anchors[0].ID != "first" || anchors[1].ID != "second" {
		t.Errorf("order = %q, %q", anchors[0].ID, anchors[1].ID)
	}
}

func TestWrap_InvalidRange(t *testing.T) {
	cases := []struct {
		name       string
		start, end int
	}{
		{"negative start", -1, 3},
		{"end past content", 0, 100},
		{"start equals end", 2, 2},
		{"start after end", 5, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Wrap("short text", tc.start, tc.end, "id")
			if !errors.Is(err, apperr.ErrInvalidRange) {
				t.Errorf("err = %v, want ErrInvalidRange", err)
			}
		})
	}
}

func TestWrap_DuplicateID(t *testing.T) {
	wrapped, err := Wrap("some longer content", 0, 4, "dup")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Wrap(wrapped, 5, 11, "dup"); !errors.Is(err, apperr.ErrDuplicateAnchor) {
		t.Errorf("err = %v, want ErrDuplicateAnchor", err)
	}
}

func TestRemove_NotFound(t *testing.T) {
	if _, err := Remove("no anchors here", "ghost"); !errors.Is(err, apperr.ErrAnchorNotFound) {
		t.Errorf("err = %v, want ErrAnchorNotFound", err)
	}
}

func TestRemove_OrphanedMarker(t *testing.T) {
	// A lone start marker is still removable: edits may have destroyed the
	// end marker and the leftover must be cleanable.
	content := "text <!-- anchor-start:x--> more"
	out, err := Remove(content, "x")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if out != "text  more" {
		t.Errorf("out = %q", out)
	}
}
