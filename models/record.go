package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ScoreConditionType is one of the eight known condition tags.
type ScoreConditionType string

const (
	ConditionMemberCount      ScoreConditionType = "memberCount"
	ConditionNonMemberCount   ScoreConditionType = "nonMemberCount"
	ConditionTotalCount       ScoreConditionType = "totalCount"
	ConditionActivityCount    ScoreConditionType = "activityCount"
	ConditionActivityType     ScoreConditionType = "activityType"
	ConditionActivityCategory ScoreConditionType = "activityCategory"
	ConditionSpecificActivity ScoreConditionType = "specificActivity"
	ConditionPartnerCount     ScoreConditionType = "partnerCount"
)

// KnownConditionTypes lists every valid ScoreConditionType.
var KnownConditionTypes = []ScoreConditionType{
	ConditionMemberCount,
	ConditionNonMemberCount,
	ConditionTotalCount,
	ConditionActivityCount,
	ConditionActivityType,
	ConditionActivityCategory,
	ConditionSpecificActivity,
	ConditionPartnerCount,
}

// ValidConditionType reports whether t is one of the eight known tags.
func ValidConditionType(t ScoreConditionType) bool {
	for _, k := range KnownConditionTypes {
		if t == k {
			return true
		}
	}
	return false
}

// ScoreCondition is a single matchable predicate contributing points toward a
// ScoreRule. Count payloads stay float64 so hand-edited records with
// non-integer counts reach the validator instead of failing to decode.
type ScoreCondition struct {
	ID               uuid.UUID          `json:"id"`
	Type             ScoreConditionType `json:"type"`
	MemberCount      *float64           `json:"memberCount,omitempty"`
	NonMemberCount   *float64           `json:"nonMemberCount,omitempty"`
	TotalCount       *float64           `json:"totalCount,omitempty"`
	ActivityCount    *float64           `json:"activityCount,omitempty"`
	ActivityType     *string            `json:"activityType,omitempty"`
	ActivityCategory *string            `json:"activityCategory,omitempty"`
	SpecificActivity *string            `json:"specificActivity,omitempty"`
	PartnerCount     *float64           `json:"partnerCount,omitempty"`
	Points           float64            `json:"points"`
	Description      string             `json:"description,omitempty"`
}

// ScoreRule is a named, independently enable/disable-able scoring rule. Each
// rule exclusively owns its condition list.
type ScoreRule struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	BaseScore   float64          `json:"baseScore"`
	Description string           `json:"description,omitempty"`
	Enabled     bool             `json:"enabled"`
	Conditions  []ScoreCondition `json:"conditions"`
}

// TeamPosition is one managed position within a team block.
type TeamPosition struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	MaxMembers  *float64  `json:"maxMembers,omitempty"`
	IsRequired  *bool     `json:"isRequired,omitempty"`
	Description string    `json:"description,omitempty"`
}

// TeamManagement owns the team positions of a record.
type TeamManagement struct {
	Positions []TeamPosition `json:"positions"`
}

// EfficientStarFields are the specifics for efficient_star awards.
type EfficientStarFields struct {
	No         int    `json:"no"`
	Guidelines string `json:"guidelines,omitempty"`
}

// StarPointFields are the specifics for star_point awards.
type StarPointFields struct {
	Objective float64 `json:"objective"`
}

// NationalAreaIncentiveFields are the specifics for national_area_incentive
// awards. Status must be one of open, closed, completed.
type NationalAreaIncentiveFields struct {
	NationalAllocation string `json:"national_allocation,omitempty"`
	AreaAllocation     string `json:"area_allocation,omitempty"`
	Status             string `json:"status,omitempty"`
}

// CanonicalRecord is the normalized, type-coerced standard record produced by
// the FieldMapper. Exactly the specific-field variant matching AwardType is
// non-nil; the others stay absent.
type CanonicalRecord struct {
	AwardType    AwardType `json:"award_type"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Deadline     string    `json:"deadline"`
	ExternalLink string    `json:"external_link,omitempty"`

	Category *CategoryFields `json:"category,omitempty"`

	EfficientStar         *EfficientStarFields         `json:"efficient_star,omitempty"`
	StarPoint             *StarPointFields             `json:"star_point,omitempty"`
	NationalAreaIncentive *NationalAreaIncentiveFields `json:"national_area_incentive,omitempty"`

	ScoreRules     []ScoreRule     `json:"score_rules"`
	TeamManagement *TeamManagement `json:"team_management,omitempty"`

	Confidence        float64  `json:"confidence"`
	ExtractedKeywords []string `json:"extracted_keywords"`
	Notes             string   `json:"notes,omitempty"`

	// SourceCharCount is the length of the extracted text this record was
	// mapped from; zero means the document yielded no text.
	SourceCharCount int `json:"source_char_count,omitempty"`
}

// Specifics returns the populated variant as an (awardType, any) pair for
// serialization; the second value is nil when no variant is set.
func (r *CanonicalRecord) Specifics() (AwardType, interface{}) {
	switch {
	case r.EfficientStar != nil:
		return AwardTypeEfficientStar, r.EfficientStar
	case r.StarPoint != nil:
		return AwardTypeStarPoint, r.StarPoint
	case r.NationalAreaIncentive != nil:
		return AwardTypeNationalAreaIncentive, r.NationalAreaIncentive
	}
	return r.AwardType, nil
}

// Provenance ties a CanonicalRecord back to the interpretation run that
// produced it. It feeds the interpretation log; a hand-entered record may
// carry none.
type Provenance struct {
	SourceText     string                  `json:"source_text"`
	SourceFilename string                  `json:"source_filename"`
	StoragePath    string                  `json:"storage_path,omitempty"`
	Backend        string                  `json:"backend"`
	Proposal       *InterpretationProposal `json:"proposal,omitempty"`
}

// InterpretationLog is one append-only audit row linking a persisted record to
// the interpretation run that produced it.
type InterpretationLog struct {
	ID             uuid.UUID       `json:"id"`
	RecordID       uuid.UUID       `json:"record_id"`
	SourceHash     string          `json:"source_hash"`
	SourceFilename string          `json:"source_filename"`
	Backend        string          `json:"backend"`
	RawProposal    json.RawMessage `json:"raw_proposal,omitempty"`
	Confidence     float64         `json:"confidence"`
	Keywords       []string        `json:"keywords"`
	Notes          string          `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ScoreRules is a JSONB-friendly rule list.
type ScoreRules []ScoreRule

// Value implements driver.Valuer for JSONB
func (s ScoreRules) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner for JSONB
func (s *ScoreRules) Scan(value interface{}) error {
	if value == nil {
		*s = make(ScoreRules, 0)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*s = make(ScoreRules, 0)
		return nil
	}

	if len(bytes) == 0 {
		*s = make(ScoreRules, 0)
		return nil
	}

	return json.Unmarshal(bytes, s)
}
