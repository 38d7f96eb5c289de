package domain

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SynonymTable maps a canonical preference phrase (lower-cased) to related
// keywords. The lexical scorer consults it when a preference has no verbatim
// match in the message text.
type SynonymTable map[string][]string

// DefaultSynonymTable returns the built-in expansion table. It is used when
// no external table is configured.
func DefaultSynonymTable() SynonymTable {
	return SynonymTable{
		"job opportunities": {"job", "hiring", "career", "employment", "position", "vacancy", "work", "internship", "recruit"},
		"study materials":   {"study", "course", "tutorial", "learning", "education", "lecture", "pdf", "notes", "exam", "test"},
		"physics":           {"physics", "quantum", "mechanics", "thermodynamics", "relativity", "particle", "motion", "energy"},
		"technology":        {"tech", "software", "hardware", "ai", "programming", "code", "computer", "app", "digital", "cyber", "data", "algorithm"},
		"business":          {"business", "startup", "entrepreneur", "funding", "investment", "market", "sales", "revenue"},
	}
}

// LoadSynonymTable reads a yaml table of the form:
//
//	physics:
//	  - quantum
//	  - mechanics
//
// Keys and keywords are normalized to lower case. Empty keys or keys with no
// keywords are rejected so a broken table fails at startup, not at scoring.
func LoadSynonymTable(path string) (SynonymTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read synonym table: %w", err)
	}

	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse synonym table: %w", err)
	}

	table := make(SynonymTable, len(raw))
	for key, keywords := range raw {
		canonical := strings.ToLower(strings.TrimSpace(key))
		if canonical == "" {
			return nil, fmt.Errorf("synonym table contains an empty key")
		}
		cleaned := make([]string, 0, len(keywords))
		for _, kw := range keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				cleaned = append(cleaned, kw)
			}
		}
		if len(cleaned) == 0 {
			return nil, fmt.Errorf("synonym table entry %q has no keywords", canonical)
		}
		table[canonical] = cleaned
	}
	return table, nil
}

// Expansions returns the keywords for a preference, or nil when the
// preference is not in the table.
func (t SynonymTable) Expansions(preference string) []string {
	return t[strings.ToLower(strings.TrimSpace(preference))]
}
