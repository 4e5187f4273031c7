// Package indexer provides document chunking and incremental index synchronization.
package indexer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/hyperjump/kioku/internal/models"
)

// chunkNamespace is the fixed UUIDv5 namespace for chunk IDs. Chunk identity
// is a pure function of document ID and byte offsets, so re-chunking
// unchanged text reproduces identical IDs across runs and processes.
var chunkNamespace = uuid.MustParse("9d1c4be5-2f6a-4a91-b0c3-5e7d8a2f1c40")

// Chunker splits text into overlapping word-window chunks with byte offsets.
// Boundaries prefer sentence or paragraph ends: a candidate boundary is taken
// only when it falls within [maxTokens-slack, maxTokens] words; otherwise the
// chunk is cut hard at maxTokens. Tokens are whitespace-separated words,
// an approximation of model tokens that matches the upstream defaults.
type Chunker struct {
	maxTokens int
	overlap   int
	slack     int
}

// NewChunker creates a chunker. Non-positive arguments fall back to the
// defaults (500-word chunks, 50-word overlap, 50-word boundary slack).
func NewChunker(maxTokens, overlap, slack int) *Chunker {
	if maxTokens <= 0 {
		maxTokens = 500
	}
	if overlap < 0 {
		overlap = 50
	}
	if overlap >= maxTokens {
		overlap = maxTokens - 1
	}
	if slack <= 0 || slack >= maxTokens {
		slack = maxTokens / 10
	}
	return &Chunker{maxTokens: maxTokens, overlap: overlap, slack: slack}
}

// span is one word's byte range in the original text.
type span struct {
	start, end int
}

// Chunk splits text into chunks for docID. Empty or whitespace-only text
// yields nil; text shorter than the window yields a single chunk with no
// overlap. Identical input always yields byte-identical chunks.
func (c *Chunker) Chunk(docID, text string) []*models.Chunk {
	words := scanWords(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []*models.Chunk
	for i := 0; i < len(words); {
		last := i + c.maxTokens - 1
		if last >= len(words)-1 {
			chunks = append(chunks, c.newChunk(docID, text, words[i].start, words[len(words)-1].end))
			break
		}
		cut := c.boundaryCut(text, words, i, last)
		chunks = append(chunks, c.newChunk(docID, text, words[i].start, words[cut].end))

		next := cut + 1 - c.overlap
		if next <= i {
			next = i + 1
		}
		i = next
	}
	return chunks
}

// boundaryCut returns the index of the last word of the chunk starting at
// first, preferring a sentence or paragraph end within the slack window
// [hardCut-slack, hardCut] and falling back to the hard cut.
func (c *Chunker) boundaryCut(text string, words []span, first, hardCut int) int {
	low := hardCut - c.slack
	if low < first {
		low = first
	}
	for j := hardCut; j >= low; j-- {
		if endsSentence(text, words, j) {
			return j
		}
	}
	return hardCut
}

// endsSentence reports whether word j closes a sentence (terminal
// punctuation, allowing trailing quotes or brackets) or is followed by a
// paragraph break (blank line before the next word).
func endsSentence(text string, words []span, j int) bool {
	word := strings.TrimRight(text[words[j].start:words[j].end], `"')]`+"`*_")
	if strings.HasSuffix(word, ".") || strings.HasSuffix(word, "!") || strings.HasSuffix(word, "?") {
		return true
	}
	if j+1 < len(words) {
		gap := text[words[j].end:words[j+1].start]
		return strings.Count(gap, "\n") >= 2
	}
	return false
}

func (c *Chunker) newChunk(docID, text string, start, end int) *models.Chunk {
	return &models.Chunk{
		ID:         ChunkID(docID, start, end),
		DocumentID: docID,
		Start:      start,
		End:        end,
		Text:       text[start:end],
	}
}

// ChunkID derives the deterministic entry ID for a chunk from its document ID
// and byte offsets (UUIDv5 in a fixed namespace).
func ChunkID(docID string, start, end int) string {
	name := fmt.Sprintf("%s:%d:%d", docID, start, end)
	return uuid.NewSHA1(chunkNamespace, []byte(name)).String()
}

// scanWords returns the byte spans of whitespace-separated words.
func scanWords(text string) []span {
	var words []span
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				words = append(words, span{start: start, end: i})
				start = -1
			}
		} else if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		words = append(words, span{start: start, end: len(text)})
	}
	return words
}
