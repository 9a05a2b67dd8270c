// Package chunker splits text into size-bounded, overlapping chunks along a
// fixed separator cascade, preferring larger structural boundaries first.
package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// separators is tried in order. Paragraph breaks first, then lines, then
// sentence boundaries, then words.
var separators = []string{"\n\n", "\n", ". ", " "}

// Config bounds the chunk size and the overlap carried between adjacent
// chunks. Sizes are in bytes.
type Config struct {
	ChunkSize    int
	ChunkOverlap int
}

func DefaultConfig() Config {
	return Config{ChunkSize: 600, ChunkOverlap: 100}
}

func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("chunk overlap must not be negative, got %d", c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", c.ChunkOverlap, c.ChunkSize)
	}
	return nil
}

// Split breaks text into chunks of at most cfg.ChunkSize bytes, with
// roughly cfg.ChunkOverlap bytes repeated from the tail of each chunk into
// the next. Text that none of the separators can break is cut at the byte
// ceiling, so the size bound always holds.
func Split(text string, cfg Config) ([]string, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if len(text) <= cfg.ChunkSize {
		return []string{text}, nil
	}
	return merge(atomize(text, 0, cfg), cfg), nil
}

// atomize recursively splits text into units no larger than the chunk size,
// using ever finer separators. Separators stay attached to the preceding
// unit so that concatenating all units reproduces the input exactly. Text
// with no separator at all is hard-cut as the last resort.
func atomize(text string, level int, cfg Config) []string {
	if len(text) <= cfg.ChunkSize {
		return []string{text}
	}
	if level >= len(separators) {
		return hardCut(text, cfg.ChunkSize-cfg.ChunkOverlap)
	}
	var units []string
	for _, piece := range strings.SplitAfter(text, separators[level]) {
		if piece == "" {
			continue
		}
		if len(piece) > cfg.ChunkSize {
			units = append(units, atomize(piece, level+1, cfg)...)
			continue
		}
		units = append(units, piece)
	}
	return units
}

// hardCut slices separator-free text into pieces of at most n bytes on
// rune boundaries. Pieces are sized below the chunk ceiling so the merge
// stage can still seed overlap without exceeding it.
func hardCut(text string, n int) []string {
	var out []string
	for len(text) > n {
		cut := n
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if cut == 0 {
			// n is smaller than one rune; keep the rune whole.
			cut = n
			for cut < len(text) && !utf8.RuneStart(text[cut]) {
				cut++
			}
		}
		out = append(out, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}

// merge greedily packs units into chunks, seeding each new chunk with an
// overlap tail from its predecessor. seedLen tracks how much of the buffer
// is carried-over overlap so a chunk of pure overlap is never emitted.
func merge(units []string, cfg Config) []string {
	var out []string
	var buf strings.Builder
	seedLen := 0

	for _, u := range units {
		if buf.Len()+len(u) > cfg.ChunkSize {
			var seed string
			if buf.Len() > seedLen {
				out = append(out, buf.String())
				seed = tail(buf.String(), cfg.ChunkOverlap)
			} else {
				seed = buf.String()
			}
			if len(seed)+len(u) > cfg.ChunkSize {
				seed = tail(seed, cfg.ChunkSize-len(u))
			}
			buf.Reset()
			buf.WriteString(seed)
			seedLen = len(seed)
		}
		buf.WriteString(u)
	}
	if buf.Len() > seedLen {
		out = append(out, buf.String())
	}
	return out
}

// tail returns the last n bytes of s, aligned forward to a rune boundary so
// multi-byte characters are never split.
func tail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	i := len(s) - n
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return s[i:]
}
