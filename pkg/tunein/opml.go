package tunein

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
)

const (
	outlineTypeAudio = "audio"
	outlineTypeLink  = "link"
	outlineItem      = "station"
	keyUnavailable   = "unavailable"
	keyDidYouMean    = "didyoumean"

	didYouMeanPrefix = "did you mean"
)

type opmlDocument struct {
	XMLName xml.Name  `xml:"opml"`
	Status  int       `xml:"head>status"`
	Title   string    `xml:"head>title"`
	Body    []outline `xml:"body>outline"`
}

type outline struct {
	Type        string    `xml:"type,attr"`
	Item        string    `xml:"item,attr"`
	Key         string    `xml:"key,attr"`
	Text        string    `xml:"text,attr"`
	URL         string    `xml:"URL,attr"`
	GuideID     string    `xml:"guide_id,attr"`
	Subtext     string    `xml:"subtext,attr"`
	Image       string    `xml:"image,attr"`
	Formats     string    `xml:"formats,attr"`
	Bitrate     string    `xml:"bitrate,attr"`
	Reliability string    `xml:"reliability,attr"`
	Children    []outline `xml:"outline"`
}

// Station is a candidate station from a search response.
type Station struct {
	Name        string
	MetadataURL string
	Available   bool

	GuideID     string
	Subtext     string
	Image       string
	Formats     string
	Bitrate     int
	Reliability int
}

// SearchResult holds the stations of a search response in document order.
type SearchResult struct {
	Query      string
	Stations   []Station
	Suggestion string
}

// Available returns the stations not marked unavailable.
func (r *SearchResult) Available() []Station {
	var out []Station
	for _, s := range r.Stations {
		if s.Available {
			out = append(out, s)
		}
	}

	return out
}

// Decode parses an OPML search response. Nested outlines are visited in
// document order.
func Decode(r io.Reader) (*SearchResult, error) {
	var doc opmlDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode opml: %w", err)
	}

	result := &SearchResult{}
	walk(doc.Body, func(o outline) {
		switch {
		case o.Type == outlineTypeAudio && o.Item == outlineItem:
			result.Stations = append(result.Stations, o.station())
		case o.Type == outlineTypeLink && result.Suggestion == "" && o.isSuggestion():
			result.Suggestion = suggestionTerm(o)
		}
	})

	return result, nil
}

func walk(outlines []outline, fn func(outline)) {
	for _, o := range outlines {
		fn(o)
		walk(o.Children, fn)
	}
}

func (o outline) station() Station {
	bitrate, _ := strconv.Atoi(o.Bitrate)
	reliability, _ := strconv.Atoi(o.Reliability)

	return Station{
		Name:        o.Text,
		MetadataURL: o.URL,
		Available:   o.Key != keyUnavailable,
		GuideID:     o.GuideID,
		Subtext:     o.Subtext,
		Image:       o.Image,
		Formats:     o.Formats,
		Bitrate:     bitrate,
		Reliability: reliability,
	}
}

// isSuggestion reports whether a link outline carries a search suggestion
// rather than a browse link.
func (o outline) isSuggestion() bool {
	if o.Key == keyDidYouMean || strings.HasPrefix(strings.ToLower(o.Text), didYouMeanPrefix) {
		return true
	}
	if o.URL == "" {
		return strings.TrimSpace(o.Text) != ""
	}

	u, err := url.Parse(o.URL)
	return err == nil && u.Query().Get("query") != ""
}

// suggestionTerm prefers the query parameter of the link URL, falling back
// to the link text with any "Did you mean" framing removed.
func suggestionTerm(o outline) string {
	if u, err := url.Parse(o.URL); err == nil {
		if q := strings.TrimSpace(u.Query().Get("query")); q != "" {
			return q
		}
	}

	text := strings.TrimSpace(o.Text)
	if strings.HasPrefix(strings.ToLower(text), didYouMeanPrefix) {
		text = text[len(didYouMeanPrefix):]
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "?")
	text = strings.Trim(text, ` "'`)

	return text
}
