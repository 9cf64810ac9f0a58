package models

// AwardType identifies which kind of award/indicator definition a document
// describes.
type AwardType string

const (
	AwardTypeEfficientStar         AwardType = "efficient_star"
	AwardTypeStarPoint             AwardType = "star_point"
	AwardTypeNationalAreaIncentive AwardType = "national_area_incentive"
)

// ValidAwardType reports whether t is one of the three known award types.
func ValidAwardType(t AwardType) bool {
	switch t {
	case AwardTypeEfficientStar, AwardTypeStarPoint, AwardTypeNationalAreaIncentive:
		return true
	}
	return false
}

// BasicFields are the award fields every proposal carries.
type BasicFields struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Deadline     string `json:"deadline"`
	ExternalLink string `json:"external_link,omitempty"`
}

// CategoryFields carry the optional scoring category, relevant only for
// star_point awards.
type CategoryFields struct {
	CategoryID   string `json:"category_id,omitempty"`
	CategoryType string `json:"category_type,omitempty"`
}

// ProposalSpecifics is the flat, untrusted award-type-dependent field block as
// the interpretation backend returns it. The FieldMapper narrows it into the
// typed variant matching the award type; fields for other types are dropped.
type ProposalSpecifics struct {
	No                 *float64 `json:"no,omitempty"`
	Guidelines         string   `json:"guidelines,omitempty"`
	Objective          *float64 `json:"objective,omitempty"`
	NationalAllocation string   `json:"national_allocation,omitempty"`
	AreaAllocation     string   `json:"area_allocation,omitempty"`
	Status             string   `json:"status,omitempty"`
}

// ProposedCondition is a backend-suggested score condition. Type and payload
// are untrusted; unknown types are carried through and flagged by the
// validator, not here.
type ProposedCondition struct {
	Type             string   `json:"type"`
	MemberCount      *float64 `json:"memberCount,omitempty"`
	NonMemberCount   *float64 `json:"nonMemberCount,omitempty"`
	TotalCount       *float64 `json:"totalCount,omitempty"`
	ActivityCount    *float64 `json:"activityCount,omitempty"`
	ActivityType     string   `json:"activityType,omitempty"`
	ActivityCategory string   `json:"activityCategory,omitempty"`
	SpecificActivity string   `json:"specificActivity,omitempty"`
	PartnerCount     *float64 `json:"partnerCount,omitempty"`
	Points           float64  `json:"points"`
	Description      string   `json:"description,omitempty"`
}

// ProposedRule is a backend-suggested score rule.
type ProposedRule struct {
	Name        string              `json:"name"`
	BaseScore   float64             `json:"baseScore"`
	Description string              `json:"description,omitempty"`
	Enabled     bool                `json:"enabled"`
	Conditions  []ProposedCondition `json:"conditions"`
}

// ProposedPosition is a backend-suggested team position.
type ProposedPosition struct {
	Name        string   `json:"name"`
	MaxMembers  *float64 `json:"maxMembers,omitempty"`
	IsRequired  *bool    `json:"isRequired,omitempty"`
	Description string   `json:"description,omitempty"`
}

// ProposedTeam groups the backend-suggested team positions.
type ProposedTeam struct {
	Positions []ProposedPosition `json:"positions"`
}

// InterpretationProposal is the backend's best-effort structured guess at the
// award definition a document describes. It is produced once per pipeline
// invocation and immutable once returned.
type InterpretationProposal struct {
	AwardType         AwardType         `json:"award_type"`
	BasicFields       BasicFields       `json:"basic_fields"`
	CategoryFields    *CategoryFields   `json:"category_fields,omitempty"`
	SpecificFields    ProposalSpecifics `json:"specific_fields"`
	ScoreRules        []ProposedRule    `json:"score_rules"`
	TeamManagement    *ProposedTeam     `json:"team_management,omitempty"`
	Confidence        float64           `json:"confidence"`
	ExtractedKeywords []string          `json:"extracted_keywords"`
	Notes             string            `json:"notes,omitempty"`
}
