package main

import (
	"encoding/hex"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/quick"
)

// hexDumpLimit bounds how much of a binary object the dump renders.
const hexDumpLimit = 4096

// Preview is the display-ready form of a fetched object prefix.
type Preview struct {
	Key       string
	Text      string // rendered content, possibly ANSI-highlighted
	Language  string // detected lexer name, "" for plain text
	Binary    bool
	Truncated bool // object larger than the fetched prefix
}

// buildPreview turns fetched bytes into displayable content. Detection or
// highlighting failure is never an error: the content degrades to raw
// text, and non-UTF-8 data to a hex dump.
func buildPreview(key string, data []byte, objectSize, fetched int64) Preview {
	p := Preview{
		Key:       key,
		Truncated: objectSize > fetched,
	}

	if !utf8.Valid(data) {
		p.Binary = true
		dump := data
		if len(dump) > hexDumpLimit {
			dump = dump[:hexDumpLimit]
			p.Truncated = true
		}
		p.Text = hex.Dump(dump)
		return p
	}

	text := string(data)
	p.Text = text

	lexer := lexers.Match(filepath.Base(key))
	if lexer == nil {
		lexer = lexers.Analyse(text)
	}
	if lexer == nil {
		return p
	}
	p.Language = lexer.Config().Name

	var highlighted strings.Builder
	if err := quick.Highlight(&highlighted, text, p.Language, "terminal256", "monokai"); err != nil {
		// Raw text stays in place; highlighting is best-effort.
		return p
	}
	p.Text = highlighted.String()
	return p
}
