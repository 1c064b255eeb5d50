package internal

import (
	"regexp"
	"strings"
)

// Chunker splits raw document text into retrievable units. The core
// never depends on a concrete splitter; ingestion takes whichever
// implementation the caller wires in.
type Chunker interface {
	Chunk(text string) []string
}

// SentenceChunker groups sentences into chunks capped by a word
// budget, approximating the token budget the snapshot format was
// originally built with.
type SentenceChunker struct {
	maxWords int
	splitter *regexp.Regexp
}

func NewSentenceChunker(maxWords int) *SentenceChunker {
	if maxWords <= 0 {
		maxWords = 100
	}
	return &SentenceChunker{
		maxWords: maxWords,
		splitter: regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?]+)`),
	}
}

func (c *SentenceChunker) Chunk(text string) []string {
	sentences := c.splitter.FindAllString(text, -1)
	if len(sentences) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		sentences = []string{trimmed}
	}

	var chunks []string
	var current []string
	words := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunk := strings.TrimSpace(strings.Join(current, " "))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		current = current[:0]
		words = 0
	}

	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}

		n := len(strings.Fields(sentence))
		if words > 0 && words+n > c.maxWords {
			flush()
		}
		current = append(current, sentence)
		words += n

		// An oversized single sentence still becomes its own chunk.
		if words >= c.maxWords {
			flush()
		}
	}
	flush()

	return chunks
}
