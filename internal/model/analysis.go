package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Sentinels substituted for absent elements and attributes.
const (
	NoTitle  = "no title tag found"
	NoSource = "No source"
	NoAlt    = "No alt text"

	// A description or keywords meta tag is present but has no content.
	NoDescription = "No description available"
	NoKeywords    = "No keywords available"
)

// HeadingLevels lists the heading tags in level order.
var HeadingLevels = []string{"h1", "h2", "h3", "h4", "h5", "h6"}

// PageAnalysis holds the complete result of analyzing a web page.
type PageAnalysis struct {
	URL            string         `json:"url"`
	Meta           MetaInfo       `json:"meta_tags"`
	Headers        HeaderMap      `json:"headers"`
	Images         []ImageEntry   `json:"image_alt_tags"`
	WordCount      int            `json:"word_count"`
	KeywordDensity KeywordDensity `json:"keyword_density"`
	ContentHash    string         `json:"content_hash,omitempty"`
	FetchedAt      time.Time      `json:"fetched_at,omitzero"`
}

// MetaInfo holds the page title and the description/keywords meta tags.
type MetaInfo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Keywords    string `json:"keywords"`
}

// HeaderMap maps a heading tag (h1..h6) to the trimmed text of every
// matching element in document order. All six levels are always present.
type HeaderMap map[string][]string

// NewHeaderMap returns a HeaderMap with an empty sequence for every level.
func NewHeaderMap() HeaderMap {
	m := make(HeaderMap, len(HeadingLevels))
	for _, level := range HeadingLevels {
		m[level] = []string{}
	}
	return m
}

// ImageEntry describes one <img> element.
type ImageEntry struct {
	Source string `json:"src"`
	Alt    string `json:"alt"`
}

// KeywordShare is a single word and its share of all word tokens.
type KeywordShare struct {
	Word       string
	Percentage float64
}

// KeywordDensity is an ordered word → percentage mapping. It encodes as a
// JSON object whose key order matches the slice order.
type KeywordDensity []KeywordShare

// Percentage returns the share recorded for word.
func (d KeywordDensity) Percentage(word string) (float64, bool) {
	for _, s := range d {
		if s.Word == word {
			return s.Percentage, true
		}
	}
	return 0, false
}

// MarshalJSON implements json.Marshaler.
func (d KeywordDensity) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(s.Word)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatFloat(s.Percentage, 'g', -1, 64))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler, preserving key order.
func (d *KeywordDensity) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("keyword density: expected object, got %v", tok)
	}

	out := KeywordDensity{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		word, ok := tok.(string)
		if !ok {
			return fmt.Errorf("keyword density: expected string key, got %v", tok)
		}
		var pct float64
		if err := dec.Decode(&pct); err != nil {
			return fmt.Errorf("keyword density: value for %q: %w", word, err)
		}
		out = append(out, KeywordShare{Word: word, Percentage: pct})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*d = out
	return nil
}

// ErrorResponse is the JSON shape returned on failure.
type ErrorResponse struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Kind       string `json:"kind,omitempty"`
	Step       string `json:"step,omitempty"`
}
