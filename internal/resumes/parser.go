package resumes

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"code.sajari.com/docconv"
)

// minParsedTextLen is the shortest extracted text we accept. Anything
// below this is almost always a scanned image or a corrupt file, and
// downstream field extraction would only hallucinate on it.
const minParsedTextLen = 120

var parseableExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".doc":  true,
	".rtf":  true,
	".odt":  true,
	".txt":  true,
}

// Parser extracts plain text from uploaded resume documents.
type Parser struct{}

// NewParser creates a resume text parser.
func NewParser() *Parser {
	return &Parser{}
}

// SupportedExtension reports whether a file name has a parseable extension.
func (p *Parser) SupportedExtension(fileName string) bool {
	return parseableExtensions[strings.ToLower(path.Ext(fileName))]
}

// Parse converts a resume document into plain text.
func (p *Parser) Parse(fileName string, data []byte) (string, error) {
	ext := strings.ToLower(path.Ext(fileName))
	if !parseableExtensions[ext] {
		return "", fmt.Errorf("unsupported file type: %s", ext)
	}

	var text string
	if ext == ".txt" {
		text = string(data)
	} else {
		res, err := docconv.Convert(bytes.NewReader(data), docconv.MimeTypeByExtension(fileName), true)
		if err != nil {
			return "", fmt.Errorf("failed to parse %s: %w", ext, err)
		}
		text = res.Body
	}

	text = strings.TrimSpace(text)
	if len(text) < minParsedTextLen {
		return "", fmt.Errorf("extracted text too short (%d chars): file is likely scanned or corrupt", len(text))
	}
	return text, nil
}
