package pageanalyzer

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// Parse decodes raw to UTF-8 and builds a document tree from it.
//
// The encoding is taken from contentType, a BOM, or a <meta charset>
// declaration in the first kilobyte, in that order. When none of them
// names an encoding and the bytes are already valid UTF-8 they are used
// as-is. Malformed markup is repaired by the HTML5 parsing algorithm and
// is never an error.
func Parse(raw []byte, contentType string) (*goquery.Document, error) {
	decoded, err := decode(raw, contentType)
	if err != nil {
		return nil, err
	}

	// Scripting is disabled so <noscript> content is parsed as markup,
	// the way a non-browser client sees the page.
	root, err := html.ParseWithOptions(bytes.NewReader(decoded), html.ParseOptionEnableScripting(false))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return goquery.NewDocumentFromNode(root), nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func decode(raw []byte, contentType string) ([]byte, error) {
	enc, name, certain := charset.DetermineEncoding(raw, contentType)
	if !certain && name == "windows-1252" && utf8.Valid(raw) {
		return raw, nil
	}
	if name == "utf-8" {
		return bytes.TrimPrefix(raw, utf8BOM), nil
	}

	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s body: %w", name, err)
	}
	return out, nil
}

var errBodyTooLarge = fmt.Errorf("body exceeds %d bytes", MaxBodyBytes)

// readBody drains body into memory. Bodies over MaxBodyBytes fail with
// errBodyTooLarge instead of being truncated.
func readBody(body io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(body, MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(raw) > MaxBodyBytes {
		return nil, errBodyTooLarge
	}
	return raw, nil
}
