package models

// RawDocument is an uploaded binary document. It lives only for the duration
// of one pipeline invocation and is never persisted as-is.
type RawDocument struct {
	Data     []byte `json:"-"`
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

// ExtractedText is the plain-text form of a RawDocument plus whatever
// metadata the document embeds.
type ExtractedText struct {
	Text      string `json:"text"`
	PageCount int    `json:"page_count"`
	Title     string `json:"title,omitempty"`
	Author    string `json:"author,omitempty"`
}

// KeySignals are lightweight pattern-match hints harvested from extracted
// text. They are supplementary signal for the interpretation step, never
// ground truth.
type KeySignals struct {
	HasDeadline     bool     `json:"has_deadline"`
	HasScoreInfo    bool     `json:"has_score_info"`
	HasMemberInfo   bool     `json:"has_member_info"`
	HasActivityInfo bool     `json:"has_activity_info"`
	Keywords        []string `json:"keywords"`
}
