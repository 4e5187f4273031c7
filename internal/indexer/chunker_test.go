package indexer

import (
	"fmt"
	"strings"
	"testing"
)

func TestChunker_EmptyText(t *testing.T) {
	c := NewChunker(10, 2, 3)
	if chunks := c.Chunk("doc", ""); chunks != nil {
		t.Errorf("empty text: %v", chunks)
	}
	if chunks := c.Chunk("doc", "   \n\t  "); chunks != nil {
		t.Errorf("whitespace-only text: %v", chunks)
	}
}

func TestChunker_ShortText(t *testing.T) {
	c := NewChunker(100, 10, 10)
	chunks := c.Chunk("doc", "just a few words here")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	ch := chunks[0]
	if ch.Start != 0 || ch.End != len("just a few words here") {
		t.Errorf("offsets %d-%d", ch.Start, ch.End)
	}
	if ch.Text != "just a few words here" {
		t.Errorf("text %q", ch.Text)
	}
	if ch.DocumentID != "doc" {
		t.Errorf("document id %q", ch.DocumentID)
	}
}

func TestChunker_OffsetsSliceOriginal(t *testing.T) {
	c := NewChunker(5, 1, 2)
	text := strings.Repeat("alpha beta gamma delta epsilon ", 10)
	for _, ch := range c.Chunk("doc", text) {
		if text[ch.Start:ch.End] != ch.Text {
			t.Fatalf("chunk text is not text[start:end] for %d-%d", ch.Start, ch.End)
		}
	}
}

func TestChunker_Overlap(t *testing.T) {
	c := NewChunker(4, 2, 1)
	var words []string
	for i := 0; i < 10; i++ {
		words = append(words, fmt.Sprintf("w%d", i))
	}
	text := strings.Join(words, " ")
	chunks := c.Chunk("doc", text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	// Consecutive chunks share the overlap region.
	for i := 1; i < len(chunks); i++ {
		if chunks[i].Start >= chunks[i-1].End {
			t.Errorf("chunks %d and %d do not overlap: %d-%d then %d-%d",
				i-1, i, chunks[i-1].Start, chunks[i-1].End, chunks[i].Start, chunks[i].End)
		}
	}
	// Full coverage: last chunk reaches the end of the text.
	if chunks[len(chunks)-1].End != len(text) {
		t.Errorf("last chunk ends at %d, text length %d", chunks[len(chunks)-1].End, len(text))
	}
}

func TestChunker_Deterministic(t *testing.T) {
	c := NewChunker(6, 2, 2)
	text := "One sentence here. Another sentence follows! A third one? And then some trailing words without punctuation"
	a := c.Chunk("doc", text)
	b := c.Chunk("doc", text)
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Start != b[i].Start || a[i].End != b[i].End {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestChunker_SentenceBoundaryPreferred(t *testing.T) {
	c := NewChunker(6, 0, 3)
	// Word 4 ("sentence.") ends a sentence inside the slack window [3,5],
	// so the first chunk should cut there instead of at word 5.
	text := "aa bb cc dd sentence. ee ff gg hh ii jj kk"
	chunks := c.Chunk("doc", text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	if got := chunks[0].Text; !strings.HasSuffix(got, "sentence.") {
		t.Errorf("first chunk = %q, want cut after the sentence end", got)
	}
}

func TestChunker_ParagraphBoundaryPreferred(t *testing.T) {
	c := NewChunker(6, 0, 3)
	text := "aa bb cc dd ee\n\nff gg hh ii jj kk"
	chunks := c.Chunk("doc", text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	if got := chunks[0].Text; !strings.HasSuffix(got, "ee") {
		t.Errorf("first chunk = %q, want cut at the paragraph break", got)
	}
}

func TestChunker_NoBoundaryFallsBackToHardCut(t *testing.T) {
	c := NewChunker(4, 0, 2)
	text := "aa bb cc dd ee ff gg hh"
	chunks := c.Chunk("doc", text)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Text != "aa bb cc dd" {
		t.Errorf("first chunk = %q", chunks[0].Text)
	}
	if chunks[1].Text != "ee ff gg hh" {
		t.Errorf("second chunk = %q", chunks[1].Text)
	}
}

func TestChunker_QuotedSentenceEnd(t *testing.T) {
	c := NewChunker(6, 0, 3)
	text := `aa bb cc dd "done." ee ff gg hh ii jj kk`
	chunks := c.Chunk("doc", text)
	if got := chunks[0].Text; !strings.HasSuffix(got, `"done."`) {
		t.Errorf("first chunk = %q, want cut after quoted sentence end", got)
	}
}

func TestChunkID_Deterministic(t *testing.T) {
	a := ChunkID("doc:1", 0, 100)
	b := ChunkID("doc:1", 0, 100)
	if a != b {
		t.Errorf("same inputs gave %s and %s", a, b)
	}
	if a == ChunkID("doc:1", 0, 101) {
		t.Error("different offsets gave the same ID")
	}
	if a == ChunkID("doc:2", 0, 100) {
		t.Error("different documents gave the same ID")
	}
}

func TestChunker_UnicodeOffsetsAreBytes(t *testing.T) {
	c := NewChunker(100, 0, 10)
	text := "héllo wörld"
	chunks := c.Chunk("doc", text)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].End != len(text) {
		t.Errorf("end=%d, want byte length %d", chunks[0].End, len(text))
	}
}
