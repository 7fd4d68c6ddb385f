package skill

import (
	"fmt"
	"regexp"
	"strings"
)

// MatchLevel ranks how specifically a phrase addressed this skill.
type MatchLevel int

const (
	LevelExact MatchLevel = iota
	LevelMultiKey
	LevelTitle
	LevelArtist
	LevelCategory
	LevelGeneric
)

func (l MatchLevel) String() string {
	switch l {
	case LevelExact:
		return "EXACT"
	case LevelMultiKey:
		return "MULTI_KEY"
	case LevelTitle:
		return "TITLE"
	case LevelArtist:
		return "ARTIST"
	case LevelCategory:
		return "CATEGORY"
	case LevelGeneric:
		return "GENERIC"
	default:
		return fmt.Sprintf("MatchLevel(%d)", int(l))
	}
}

// Confidence is the value reported to the host when answering a play query.
func (l MatchLevel) Confidence() float64 {
	switch l {
	case LevelExact:
		return 1.0
	case LevelMultiKey:
		return 0.9
	case LevelTitle:
		return 0.85
	case LevelArtist:
		return 0.75
	case LevelCategory:
		return 0.6
	default:
		return 0.5
	}
}

// Match is the result of matching a phrase. Data is the station term
// extracted from the phrase.
type Match struct {
	Phrase string
	Level  MatchLevel
	Data   string
}

// phrasePatterns are tried in order, most specific first.
var phrasePatterns = []struct {
	name  string
	level MatchLevel
}{
	{"internet_radio_on_tunein", LevelExact},
	{"radio_on_tunein", LevelExact},
	{"on_tunein", LevelExact},
	{"internet_radio", LevelCategory},
	{"radio", LevelCategory},
}

type phrasePattern struct {
	name  string
	level MatchLevel
	re    *regexp.Regexp
}

// Phrases matches utterances against the localized patterns.
type Phrases struct {
	patterns []phrasePattern
}

func loadPhrases(res *resources) (*Phrases, error) {
	p := &Phrases{}

	for _, pp := range phrasePatterns {
		data, err := res.read(pp.name + ".regex")
		if err != nil {
			return nil, fmt.Errorf("failed to read phrase %s: %w", pp.name, err)
		}

		re, err := regexp.Compile("(?i)" + strings.TrimSpace(string(data)))
		if err != nil {
			return nil, fmt.Errorf("failed to compile phrase %s: %w", pp.name, err)
		}

		p.patterns = append(p.patterns, phrasePattern{name: pp.name, level: pp.level, re: re})
	}

	return p, nil
}

// Match returns the level of the first pattern found in phrase with every
// occurrence of that pattern removed. Without a match the whole phrase is
// returned at LevelGeneric.
func (p *Phrases) Match(phrase string) Match {
	for _, pp := range p.patterns {
		if !pp.re.MatchString(phrase) {
			continue
		}

		return Match{
			Phrase: phrase,
			Level:  pp.level,
			Data:   strings.TrimSpace(pp.re.ReplaceAllLiteralString(phrase, "")),
		}
	}

	return Match{Phrase: phrase, Level: LevelGeneric, Data: phrase}
}
