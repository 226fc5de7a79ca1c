package seeder

import (
	"regexp"
	"strings"
)

// ContentProcessor normalizes document text before it is embedded.
type ContentProcessor struct {
	inlineSpace *regexp.Regexp
	htmlTags    *regexp.Regexp
	sentenceEnd *regexp.Regexp
}

func NewContentProcessor() *ContentProcessor {
	return &ContentProcessor{
		inlineSpace: regexp.MustCompile(`[ \t\f\v]+`),
		htmlTags:    regexp.MustCompile(`<[^>]*>`),
		sentenceEnd: regexp.MustCompile(`[.!?]+\s+`),
	}
}

// CleanContent strips markup, collapses runs of spaces and keeps at most one
// blank line between paragraphs.
func (cp *ContentProcessor) CleanContent(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = cp.htmlTags.ReplaceAllString(content, "")

	lines := strings.Split(content, "\n")
	cleaned := make([]string, 0, len(lines))
	blank := false

	for _, line := range lines {
		line = strings.TrimSpace(cp.inlineSpace.ReplaceAllString(line, " "))
		if line == "" {
			if !blank && len(cleaned) > 0 {
				cleaned = append(cleaned, "")
			}
			blank = true
			continue
		}
		blank = false
		cleaned = append(cleaned, line)
	}

	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}

// SplitIntoChunks packs paragraphs into chunks of at most maxChunkSize bytes.
// Paragraphs that are still too long are split on sentence boundaries.
// A non-positive maxChunkSize disables splitting.
func (cp *ContentProcessor) SplitIntoChunks(content string, maxChunkSize int) []string {
	if maxChunkSize <= 0 || len(content) <= maxChunkSize {
		return []string{content}
	}

	var chunks []string
	for _, chunk := range pack(strings.Split(content, "\n\n"), "\n\n", maxChunkSize) {
		if len(chunk) <= maxChunkSize {
			chunks = append(chunks, chunk)
			continue
		}
		chunks = append(chunks, pack(cp.sentences(chunk), " ", maxChunkSize)...)
	}
	return chunks
}

// sentences splits text after each terminator run, keeping the punctuation
// with its sentence.
func (cp *ContentProcessor) sentences(text string) []string {
	var out []string
	start := 0
	for _, loc := range cp.sentenceEnd.FindAllStringIndex(text, -1) {
		out = append(out, text[start:loc[1]])
		start = loc[1]
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

func pack(parts []string, sep string, maxSize int) []string {
	var chunks []string
	var current strings.Builder

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if current.Len() > 0 && current.Len()+len(sep)+len(part) > maxSize {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(sep)
		}
		current.WriteString(part)
	}

	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
