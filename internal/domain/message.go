package domain

import "strings"

// Platform identifies the origin of a message.
type Platform string

const (
	PlatformTelegram Platform = "telegram"
	PlatformTwitter  Platform = "twitter"
	PlatformReddit   Platform = "reddit"
)

// Message is a normalized record produced by a source adapter.
// Adapters guarantee a process-unique, platform-prefixed ID and a non-empty
// Platform; every other field is best-effort and may be empty. Timestamp is
// an ISO-8601 string used only for ordering, never parsed into a time.Time
// by the pipeline.
type Message struct {
	ID        string   `json:"id"`
	Platform  Platform `json:"platform"`
	Title     string   `json:"title,omitempty"`
	Content   string   `json:"content,omitempty"`
	Sender    string   `json:"sender,omitempty"`
	Chat      string   `json:"chat,omitempty"`
	URL       string   `json:"url,omitempty"`
	Timestamp string   `json:"timestamp,omitempty"`
}

// SearchText concatenates the scorable text fields (title, content, sender,
// chat) lower-casing is left to callers that need it. This is the single
// text-extraction rule shared by the lexical scorer, the semantic scorer and
// the keyword bonus.
func (m Message) SearchText() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{m.Title, m.Content, m.Sender, m.Chat} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// ScoredMessage is a copy of a Message enriched by the curator. Input
// messages are never mutated; scores live on the copy.
type ScoredMessage struct {
	Message
	LexicalScore  float64 `json:"lexical_score"`
	SemanticScore float64 `json:"semantic_score"`
	KeywordBonus  float64 `json:"keyword_bonus"`
	HybridScore   float64 `json:"hybrid_score"`
}

// CurationStats aggregates the final important set.
type CurationStats struct {
	TotalImportant     int            `json:"total_important"`
	TotalRegular       int            `json:"total_regular"`
	AvgLexicalScore    float64        `json:"avg_lexical_score"`
	AvgSemanticScore   float64        `json:"avg_semantic_score"`
	AvgHybridScore     float64        `json:"avg_hybrid_score"`
	PreferencesMatched map[string]int `json:"preferences_matched"`
}

// ScoringFailure reports a non-fatal per-message scoring degradation.
// The affected score is 0 for that message; the run itself succeeds.
type ScoringFailure struct {
	MessageID string `json:"message_id"`
	Stage     string `json:"stage"` // "lexical" or "semantic"
	Reason    string `json:"reason"`
}

// CurationResult partitions the input into important and regular messages.
// Invariant: the multiset of IDs in Important+Regular equals the input IDs
// exactly once each.
type CurationResult struct {
	Important []ScoredMessage  `json:"important"`
	Regular   []ScoredMessage  `json:"regular"`
	Stats     CurationStats    `json:"stats"`
	Failures  []ScoringFailure `json:"failures,omitempty"`
}
