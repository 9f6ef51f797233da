package services

import (
	"strings"
	"unicode/utf8"
)

// TextChunker splits a transcript into overlapping pieces small enough to embed.
type TextChunker interface {
	ChunkText(text string) []string
}

type textChunker struct {
	maxChunkSize int
	overlap      int
}

func NewTextChunker(maxChunkSize, overlap int) TextChunker {
	if maxChunkSize <= 0 {
		maxChunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxChunkSize {
		overlap = maxChunkSize / 4
	}
	return &textChunker{maxChunkSize: maxChunkSize, overlap: overlap}
}

// ChunkText packs paragraphs into chunks of about maxChunkSize runes. A paragraph
// longer than a chunk is packed sentence by sentence. Every chunk after the first
// opens with the last overlap runes of the one before it.
func (tc *textChunker) ChunkText(text string) []string {
	var chunks []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen == 0 {
			return
		}
		prev := current.String()
		chunks = append(chunks, prev)
		current.Reset()
		currentLen = 0
		if tail := lastRunes(prev, tc.overlap); tail != "" {
			current.WriteString(tail)
			currentLen = utf8.RuneCountInString(tail)
		}
	}

	add := func(unit, sep string) {
		n := utf8.RuneCountInString(unit)
		if currentLen > 0 && currentLen+len(sep)+n > tc.maxChunkSize {
			flush()
		}
		if currentLen > 0 {
			current.WriteString(sep)
			currentLen += len(sep)
		}
		current.WriteString(unit)
		currentLen += n
	}

	for _, para := range splitParagraphs(text) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if utf8.RuneCountInString(para) <= tc.maxChunkSize {
			add(para, "\n\n")
			continue
		}
		for _, sentence := range splitSentences(para) {
			add(sentence, " ")
		}
	}

	if currentLen > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// splitParagraphs treats blank lines as paragraph breaks. Extracted text has its blank
// lines removed, so single newlines that end a sentence also break.
func splitParagraphs(text string) []string {
	if strings.Contains(text, "\n\n") {
		return strings.Split(text, "\n\n")
	}
	return strings.Split(text, "\n")
}

// splitSentences cuts after '.', '!' or '?' and keeps the punctuation.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i, r := range text {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if s := strings.TrimSpace(text[start : i+1]); s != "" {
			sentences = append(sentences, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func lastRunes(text string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[len(runes)-n:])
}
