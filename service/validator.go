package service

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"awardforge-backend/models"
)

// Issue codes are stable identifiers for validation findings; messages are
// the user-facing rendering and may change.
const (
	CodeTitleRequired       = "TITLE_REQUIRED"
	CodeTitleLength         = "TITLE_LENGTH"
	CodeDescriptionRequired = "DESCRIPTION_REQUIRED"
	CodeDescriptionLength   = "DESCRIPTION_LENGTH"
	CodeDeadlineRequired    = "DEADLINE_REQUIRED"
	CodeDeadlineInvalid     = "DEADLINE_INVALID"
	CodeDeadlinePast        = "DEADLINE_PAST"
	CodeDeadlineFarFuture   = "DEADLINE_FAR_FUTURE"
	CodeLinkFormat          = "LINK_FORMAT"

	CodeSequenceNoMissing = "SEQUENCE_NO_MISSING"
	CodeSequenceNoInvalid = "SEQUENCE_NO_INVALID"
	CodeObjectiveMissing  = "OBJECTIVE_MISSING"
	CodeObjectiveInvalid  = "OBJECTIVE_INVALID"
	CodeCategoryMissing   = "CATEGORY_MISSING"
	CodeAllocationMissing = "ALLOCATION_MISSING"
	CodeStatusInvalid     = "STATUS_INVALID"

	CodeRulesEmpty          = "RULES_EMPTY"
	CodeRuleNameMissing     = "RULE_NAME_MISSING"
	CodeRuleBaseScore       = "RULE_BASE_SCORE"
	CodeRuleConditionsEmpty = "RULE_CONDITIONS_EMPTY"
	CodeConditionType       = "CONDITION_TYPE"
	CodeConditionPoints     = "CONDITION_POINTS"
	CodeConditionCount      = "CONDITION_COUNT"
	CodeConditionString     = "CONDITION_STRING"

	CodeTeamEmpty          = "TEAM_EMPTY"
	CodePositionName       = "POSITION_NAME"
	CodePositionMaxMembers = "POSITION_MAX_MEMBERS"
	CodePositionRequired   = "POSITION_REQUIRED_FLAG"

	CodeConfidenceRange = "CONFIDENCE_RANGE"
	CodeConfidenceLow   = "CONFIDENCE_LOW"
	CodeKeywordsEmpty   = "KEYWORDS_EMPTY"
	CodeSourceTextEmpty = "SOURCE_TEXT_EMPTY"
)

var (
	deadlineShape = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	// Permissive: catches obvious garbage without rejecting unusual but
	// working URLs. Mismatch is a warning, never an error.
	urlShape = regexp.MustCompile(`^(https?://)?[\w\-]+(\.[\w\-]+)+(:\d+)?(/\S*)?$`)
)

// DataValidator validates canonical records against structural and
// award-type-specific business rules.
type DataValidator struct {
	now func() time.Time
}

// NewDataValidator creates a validator using the real clock.
func NewDataValidator() *DataValidator {
	return &DataValidator{now: time.Now}
}

// Validate runs every rule group in order, accumulating errors and warnings
// without short-circuiting. "Invalid input" is data here, not a failure.
func (v *DataValidator) Validate(record *models.CanonicalRecord) *models.ValidationResult {
	result := models.NewValidationResult()
	if record == nil {
		result.AddError(CodeTitleRequired, "record is empty")
		return result
	}

	v.validateBasicFields(record, result)
	v.validateSpecificFields(record, result)
	v.validateScoreRules(record, result)
	v.validateTeamManagement(record, result)
	v.validateMetadata(record, result)

	return result
}

func (v *DataValidator) validateBasicFields(record *models.CanonicalRecord, result *models.ValidationResult) {
	title := strings.TrimSpace(record.Title)
	if title == "" {
		result.AddError(CodeTitleRequired, "title is required")
	} else if n := utf8.RuneCountInString(title); n < 2 || n > 200 {
		result.AddWarning(CodeTitleLength, fmt.Sprintf("title length %d is outside the recommended 2-200 characters", n))
	}

	description := strings.TrimSpace(record.Description)
	if description == "" {
		result.AddError(CodeDescriptionRequired, "description is required")
	} else if n := utf8.RuneCountInString(description); n < 10 || n > 2000 {
		result.AddWarning(CodeDescriptionLength, fmt.Sprintf("description length %d is outside the recommended 10-2000 characters", n))
	}

	deadline := strings.TrimSpace(record.Deadline)
	switch {
	case deadline == "":
		result.AddError(CodeDeadlineRequired, "deadline is required")
	case !deadlineShape.MatchString(deadline):
		result.AddError(CodeDeadlineInvalid, fmt.Sprintf("deadline %q is not in YYYY-MM-DD format", deadline))
	default:
		t, err := time.Parse("2006-01-02", deadline)
		if err != nil {
			result.AddError(CodeDeadlineInvalid, fmt.Sprintf("deadline %q is not a valid date", deadline))
			break
		}
		now := v.now()
		if t.Before(now.Truncate(24 * time.Hour)) {
			result.AddWarning(CodeDeadlinePast, fmt.Sprintf("deadline %s is in the past", deadline))
		} else if t.After(now.AddDate(5, 0, 0)) {
			result.AddWarning(CodeDeadlineFarFuture, fmt.Sprintf("deadline %s is more than 5 years away", deadline))
		}
	}

	if link := strings.TrimSpace(record.ExternalLink); link != "" && !urlShape.MatchString(link) {
		result.AddWarning(CodeLinkFormat, fmt.Sprintf("external link %q does not look like a URL", link))
	}
}

// validNationalAreaStatuses is the closed status set for
// national_area_incentive awards.
var validNationalAreaStatuses = map[string]bool{
	"open":      true,
	"closed":    true,
	"completed": true,
}

func (v *DataValidator) validateSpecificFields(record *models.CanonicalRecord, result *models.ValidationResult) {
	switch record.AwardType {
	case models.AwardTypeEfficientStar:
		switch {
		case record.EfficientStar == nil || record.EfficientStar.No == 0:
			result.AddWarning(CodeSequenceNoMissing, "efficient_star awards should carry a sequence number")
		case record.EfficientStar.No < 0:
			result.AddError(CodeSequenceNoInvalid, fmt.Sprintf("sequence number %d must be a positive integer", record.EfficientStar.No))
		}

	case models.AwardTypeStarPoint:
		switch {
		case record.StarPoint == nil || record.StarPoint.Objective == 0:
			result.AddWarning(CodeObjectiveMissing, "star_point awards should carry a target-score objective")
		case record.StarPoint.Objective < 0 || math.IsNaN(record.StarPoint.Objective) || math.IsInf(record.StarPoint.Objective, 0):
			result.AddError(CodeObjectiveInvalid, "objective must be a non-negative number")
		}
		if record.Category == nil || (record.Category.CategoryID == "" && record.Category.CategoryType == "") {
			result.AddWarning(CodeCategoryMissing, "star_point awards should be assigned a scoring category")
		}

	case models.AwardTypeNationalAreaIncentive:
		fields := record.NationalAreaIncentive
		if fields == nil || (fields.NationalAllocation == "" && fields.AreaAllocation == "") {
			result.AddWarning(CodeAllocationMissing, "national/area allocation text is missing")
		}
		if fields != nil && fields.Status != "" && !validNationalAreaStatuses[fields.Status] {
			result.AddError(CodeStatusInvalid, fmt.Sprintf("status %q is not one of open, closed, completed", fields.Status))
		}
	}
}

func (v *DataValidator) validateScoreRules(record *models.CanonicalRecord, result *models.ValidationResult) {
	if len(record.ScoreRules) == 0 {
		result.AddWarning(CodeRulesEmpty, "no score rules were extracted")
		return
	}

	for i, rule := range record.ScoreRules {
		label := rule.Name
		if label == "" {
			label = fmt.Sprintf("rule %d", i+1)
			result.AddWarning(CodeRuleNameMissing, fmt.Sprintf("score rule %d has no name", i+1))
		}
		if rule.BaseScore < 0 || math.IsNaN(rule.BaseScore) || math.IsInf(rule.BaseScore, 0) {
			result.AddError(CodeRuleBaseScore, fmt.Sprintf("%s: base score must be a non-negative number", label))
		}
		if len(rule.Conditions) == 0 {
			result.AddWarning(CodeRuleConditionsEmpty, fmt.Sprintf("%s has no conditions", label))
		}
		for j, cond := range rule.Conditions {
			v.validateCondition(label, j, cond, result)
		}
	}
}

func (v *DataValidator) validateCondition(ruleLabel string, index int, cond models.ScoreCondition, result *models.ValidationResult) {
	where := fmt.Sprintf("%s, condition %d", ruleLabel, index+1)

	if !models.ValidConditionType(cond.Type) {
		result.AddError(CodeConditionType, fmt.Sprintf("%s: unknown condition type %q", where, cond.Type))
	}
	if cond.Points < 0 || math.IsNaN(cond.Points) || math.IsInf(cond.Points, 0) {
		result.AddError(CodeConditionPoints, fmt.Sprintf("%s: points must be a non-negative number", where))
	}

	counts := map[string]*float64{
		"memberCount":    cond.MemberCount,
		"nonMemberCount": cond.NonMemberCount,
		"totalCount":     cond.TotalCount,
		"activityCount":  cond.ActivityCount,
		"partnerCount":   cond.PartnerCount,
	}
	for field, value := range counts {
		if value == nil {
			continue
		}
		if *value < 0 || *value != math.Trunc(*value) || math.IsNaN(*value) || math.IsInf(*value, 0) {
			result.AddError(CodeConditionCount, fmt.Sprintf("%s: %s must be a non-negative integer", where, field))
		}
	}

	matches := map[string]*string{
		"activityType":     cond.ActivityType,
		"activityCategory": cond.ActivityCategory,
		"specificActivity": cond.SpecificActivity,
	}
	for field, value := range matches {
		if value != nil && strings.TrimSpace(*value) == "" {
			result.AddError(CodeConditionString, fmt.Sprintf("%s: %s must be a non-empty string", where, field))
		}
	}
}

func (v *DataValidator) validateTeamManagement(record *models.CanonicalRecord, result *models.ValidationResult) {
	team := record.TeamManagement
	if team == nil {
		return
	}
	if len(team.Positions) == 0 {
		result.AddWarning(CodeTeamEmpty, "team management block has no positions")
		return
	}
	for i, pos := range team.Positions {
		if strings.TrimSpace(pos.Name) == "" {
			result.AddError(CodePositionName, fmt.Sprintf("team position %d has no name", i+1))
		}
		if pos.MaxMembers != nil {
			if *pos.MaxMembers <= 0 || *pos.MaxMembers != math.Trunc(*pos.MaxMembers) {
				result.AddError(CodePositionMaxMembers, fmt.Sprintf("team position %d: maxMembers must be a positive integer", i+1))
			}
		}
		if pos.IsRequired == nil {
			result.AddWarning(CodePositionRequired, fmt.Sprintf("team position %d does not state whether it is required", i+1))
		}
	}
}

func (v *DataValidator) validateMetadata(record *models.CanonicalRecord, result *models.ValidationResult) {
	if record.Confidence < 0 || record.Confidence > 1 {
		result.AddWarning(CodeConfidenceRange, fmt.Sprintf("confidence %.2f is outside [0,1]", record.Confidence))
	} else if record.Confidence < 0.5 {
		result.AddWarning(CodeConfidenceLow, "low confidence, recommend manual review")
	}
	if len(record.ExtractedKeywords) == 0 {
		result.AddWarning(CodeKeywordsEmpty, "no keywords were extracted from the document")
	}
	if record.SourceCharCount == 0 {
		result.AddWarning(CodeSourceTextEmpty, "the original extracted text was empty")
	}
}

// FixCommonIssues performs best-effort auto-repair before validation: trims
// strings, re-normalizes the deadline, floors numeric fields into their valid
// ranges, and clamps confidence. Pure and idempotent; it never invents
// missing required content.
func (v *DataValidator) FixCommonIssues(record *models.CanonicalRecord) *models.CanonicalRecord {
	if record == nil {
		return nil
	}

	fixed := *record
	fixed.Title = sanitizeText(record.Title)
	fixed.Description = sanitizeText(record.Description)
	fixed.ExternalLink = sanitizeText(record.ExternalLink)
	fixed.Notes = sanitizeText(record.Notes)

	deadline := strings.TrimSpace(record.Deadline)
	if !deadlineShape.MatchString(deadline) {
		mapper := &FieldMapper{now: v.now}
		deadline = mapper.normalizeDeadline(deadline)
	}
	fixed.Deadline = deadline

	if fixed.Confidence < 0 {
		fixed.Confidence = 0
	} else if fixed.Confidence > 1 {
		fixed.Confidence = 1
	}

	if record.EfficientStar != nil {
		fields := *record.EfficientStar
		if fields.No < 0 {
			fields.No = 0
		}
		fields.Guidelines = sanitizeText(fields.Guidelines)
		fixed.EfficientStar = &fields
	}
	if record.StarPoint != nil {
		fields := *record.StarPoint
		fields.Objective = nonNegative(fields.Objective)
		fixed.StarPoint = &fields
	}
	if record.NationalAreaIncentive != nil {
		fields := *record.NationalAreaIncentive
		fields.NationalAllocation = sanitizeText(fields.NationalAllocation)
		fields.AreaAllocation = sanitizeText(fields.AreaAllocation)
		fields.Status = strings.ToLower(strings.TrimSpace(fields.Status))
		fixed.NationalAreaIncentive = &fields
	}
	if record.Category != nil {
		category := *record.Category
		category.CategoryID = sanitizeText(category.CategoryID)
		category.CategoryType = sanitizeText(category.CategoryType)
		fixed.Category = &category
	}

	fixed.ScoreRules = make([]models.ScoreRule, len(record.ScoreRules))
	for i, rule := range record.ScoreRules {
		out := rule
		out.Name = sanitizeText(rule.Name)
		out.BaseScore = nonNegative(rule.BaseScore)
		out.Description = sanitizeText(rule.Description)
		out.Conditions = make([]models.ScoreCondition, len(rule.Conditions))
		for j, cond := range rule.Conditions {
			c := cond
			c.Points = nonNegative(cond.Points)
			c.MemberCount = nonNegativePtr(cond.MemberCount)
			c.NonMemberCount = nonNegativePtr(cond.NonMemberCount)
			c.TotalCount = nonNegativePtr(cond.TotalCount)
			c.ActivityCount = nonNegativePtr(cond.ActivityCount)
			c.PartnerCount = nonNegativePtr(cond.PartnerCount)
			c.Description = sanitizeText(cond.Description)
			out.Conditions[j] = c
		}
		fixed.ScoreRules[i] = out
	}

	if record.TeamManagement != nil {
		team := &models.TeamManagement{Positions: make([]models.TeamPosition, len(record.TeamManagement.Positions))}
		for i, pos := range record.TeamManagement.Positions {
			p := pos
			p.Name = sanitizeText(pos.Name)
			p.Description = sanitizeText(pos.Description)
			p.MaxMembers = nonNegativePtr(pos.MaxMembers)
			team.Positions[i] = p
		}
		fixed.TeamManagement = team
	}

	keywords := make([]string, 0, len(record.ExtractedKeywords))
	for _, kw := range record.ExtractedKeywords {
		if clean := sanitizeText(kw); clean != "" {
			keywords = append(keywords, clean)
		}
	}
	fixed.ExtractedKeywords = keywords

	return &fixed
}
