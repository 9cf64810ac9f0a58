package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"awardforge-backend/models"
)

// InterpretationBackend turns extracted document text into a structured
// proposal. Implementations never return an error: any invocation failure is
// absorbed into the deterministic default proposal, so callers never need to
// special-case backend unavailability.
type InterpretationBackend interface {
	Interpret(ctx context.Context, text, filename string) *models.InterpretationProposal
	Name() string
}

const (
	backendTemperature = 0.1
	maxOutputTokens    = 4096
	maxPromptChars     = 30000
	fallbackConfidence = 0.1
)

// buildInterpretationPrompt embeds the filename and extracted text into the
// fixed prompt template shared by every backend.
func buildInterpretationPrompt(text, filename string) string {
	if len(text) > maxPromptChars {
		text = text[:maxPromptChars] + "\n\n[Content truncated due to length...]"
	}

	return fmt.Sprintf(`You are an expert at reading award and indicator definition documents and turning them into structured data.

DOCUMENT FILENAME: %s

DOCUMENT TEXT:
%s

TASK:
Analyze the document and return EXACTLY ONE JSON object, no prose, no markdown, matching this shape:

{
  "awardType": "efficient_star" | "star_point" | "national_area_incentive",
  "basicFields": {
    "title": string,
    "description": string,
    "deadline": string,
    "externalLink": string (optional)
  },
  "categoryFields": { "categoryId": string, "categoryType": string } (optional, star_point only),
  "specificFields": {
    "no": number (efficient_star sequence number),
    "guidelines": string (efficient_star),
    "objective": number (star_point target score),
    "nationalAllocation": string (national_area_incentive),
    "areaAllocation": string (national_area_incentive),
    "status": "open" | "closed" | "completed" (national_area_incentive)
  },
  "scoreRules": [
    {
      "name": string,
      "baseScore": number,
      "description": string,
      "enabled": boolean,
      "conditions": [
        {
          "type": "memberCount" | "nonMemberCount" | "totalCount" | "activityCount" | "activityType" | "activityCategory" | "specificActivity" | "partnerCount",
          "memberCount": number, "nonMemberCount": number, "totalCount": number, "activityCount": number, "partnerCount": number,
          "activityType": string, "activityCategory": string, "specificActivity": string,
          "points": number,
          "description": string
        }
      ]
    }
  ],
  "teamManagement": { "positions": [ { "name": string, "maxMembers": number, "isRequired": boolean, "description": string } ] } (optional),
  "confidence": number between 0 and 1,
  "extractedKeywords": [string],
  "notes": string
}

RULES:
- Only include specificFields relevant to the chosen awardType.
- Each condition carries only the payload field matching its type.
- Use the document's own wording for titles and descriptions.
- If the document gives no deadline, leave deadline as an empty string.
- confidence reflects how completely the document specifies the award.

Return the JSON object now:`, filename, text)
}

// defaultProposal is the fixed low-confidence proposal returned whenever the
// external service cannot produce a usable response. Deterministic for a
// given day.
func defaultProposal(filename string) *models.InterpretationProposal {
	return defaultProposalAt(filename, time.Now())
}

func defaultProposalAt(filename string, now time.Time) *models.InterpretationProposal {
	return &models.InterpretationProposal{
		AwardType: models.AwardTypeEfficientStar,
		BasicFields: models.BasicFields{
			Title:       "Untitled award (interpretation unavailable)",
			Description: "The document could not be interpreted automatically. Please fill in the award details manually.",
			Deadline:    now.AddDate(1, 0, 0).Format("2006-01-02"),
		},
		ScoreRules:        []models.ProposedRule{},
		Confidence:        fallbackConfidence,
		ExtractedKeywords: []string{},
		Notes:             fmt.Sprintf("Automatic interpretation of %q failed; manual entry is required.", filename),
	}
}

// parseProposalResponse turns a raw model response into a standardized
// proposal. The second return value is false when no usable JSON object could
// be recovered.
func parseProposalResponse(raw string) (*models.InterpretationProposal, bool) {
	span := extractJSONObject(stripCodeFence(raw))
	if span == "" {
		return nil, false
	}

	var m map[string]interface{}
	if err := json.Unmarshal([]byte(span), &m); err != nil {
		return nil, false
	}
	return standardizeProposal(m), true
}

// stripCodeFence removes a possible ```json ... ``` wrapper.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// extractJSONObject returns the first balanced {...} span in s, tracking
// string literals so braces inside values do not break the balance.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// standardizeProposal defensively re-derives every field from the parsed JSON
// object. Backend-declared types are never trusted. Confidence clamping is
// authoritative here; the validator only flags leftovers from hand edits.
func standardizeProposal(m map[string]interface{}) *models.InterpretationProposal {
	p := &models.InterpretationProposal{
		ScoreRules:        []models.ProposedRule{},
		ExtractedKeywords: []string{},
	}

	awardType := models.AwardType(strings.ToLower(coerceString(pick(m, "awardType", "award_type"))))
	if !models.ValidAwardType(awardType) {
		awardType = models.AwardTypeEfficientStar
	}
	p.AwardType = awardType

	if basic := asMap(pick(m, "basicFields", "basic_fields")); basic != nil {
		p.BasicFields = models.BasicFields{
			Title:        coerceString(basic["title"]),
			Description:  coerceString(basic["description"]),
			Deadline:     coerceString(basic["deadline"]),
			ExternalLink: coerceString(pick(basic, "externalLink", "external_link", "link")),
		}
	}

	if cat := asMap(pick(m, "categoryFields", "category_fields")); cat != nil {
		fields := &models.CategoryFields{
			CategoryID:   coerceString(pick(cat, "categoryId", "category_id", "id")),
			CategoryType: coerceString(pick(cat, "categoryType", "category_type", "type")),
		}
		if fields.CategoryID != "" || fields.CategoryType != "" {
			p.CategoryFields = fields
		}
	}

	if spec := asMap(pick(m, "specificFields", "specific_fields")); spec != nil {
		p.SpecificFields = standardizeSpecifics(spec)
	}

	for _, item := range asSlice(pick(m, "scoreRules", "score_rules", "rules")) {
		rule := asMap(item)
		if rule == nil {
			continue
		}
		p.ScoreRules = append(p.ScoreRules, standardizeRule(rule))
	}

	if team := asMap(pick(m, "teamManagement", "team_management")); team != nil {
		positions := make([]models.ProposedPosition, 0)
		for _, item := range asSlice(team["positions"]) {
			pos := asMap(item)
			if pos == nil {
				continue
			}
			positions = append(positions, standardizePosition(pos))
		}
		p.TeamManagement = &models.ProposedTeam{Positions: positions}
	}

	p.Confidence = clampConfidence(m["confidence"])
	p.ExtractedKeywords = coerceStringSlice(pick(m, "extractedKeywords", "extracted_keywords", "keywords"))
	p.Notes = coerceString(m["notes"])

	return p
}

func standardizeSpecifics(spec map[string]interface{}) models.ProposalSpecifics {
	out := models.ProposalSpecifics{
		Guidelines:         coerceString(spec["guidelines"]),
		NationalAllocation: coerceString(pick(spec, "nationalAllocation", "national_allocation")),
		AreaAllocation:     coerceString(pick(spec, "areaAllocation", "area_allocation")),
		Status:             strings.ToLower(coerceString(spec["status"])),
	}
	if n, ok := coerceNumber(pick(spec, "no", "sequenceNumber", "sequence_number")); ok {
		out.No = &n
	}
	if n, ok := coerceNumber(pick(spec, "objective", "targetScore", "target_score")); ok {
		out.Objective = &n
	}
	return out
}

func standardizeRule(rule map[string]interface{}) models.ProposedRule {
	out := models.ProposedRule{
		Name:        coerceString(rule["name"]),
		BaseScore:   coerceNonNegative(pick(rule, "baseScore", "base_score")),
		Description: coerceString(rule["description"]),
		Enabled:     true,
		Conditions:  []models.ProposedCondition{},
	}
	if enabled, ok := coerceBool(rule["enabled"]); ok {
		out.Enabled = enabled
	}
	for _, item := range asSlice(rule["conditions"]) {
		cond := asMap(item)
		if cond == nil {
			continue
		}
		out.Conditions = append(out.Conditions, standardizeCondition(cond))
	}
	return out
}

func standardizeCondition(cond map[string]interface{}) models.ProposedCondition {
	out := models.ProposedCondition{
		// Unknown type values pass through; the validator owns that check.
		Type:             coerceString(cond["type"]),
		ActivityType:     coerceString(pick(cond, "activityType", "activity_type")),
		ActivityCategory: coerceString(pick(cond, "activityCategory", "activity_category")),
		SpecificActivity: coerceString(pick(cond, "specificActivity", "specific_activity")),
		Points:           coerceNonNegative(cond["points"]),
		Description:      coerceString(cond["description"]),
	}
	setCount := func(dst **float64, keys ...string) {
		if n, ok := coerceNumber(pick(cond, keys...)); ok {
			if n < 0 {
				n = 0
			}
			*dst = &n
		}
	}
	setCount(&out.MemberCount, "memberCount", "member_count")
	setCount(&out.NonMemberCount, "nonMemberCount", "non_member_count")
	setCount(&out.TotalCount, "totalCount", "total_count")
	setCount(&out.ActivityCount, "activityCount", "activity_count")
	setCount(&out.PartnerCount, "partnerCount", "partner_count")
	return out
}

func standardizePosition(pos map[string]interface{}) models.ProposedPosition {
	out := models.ProposedPosition{
		Name:        coerceString(pos["name"]),
		Description: coerceString(pos["description"]),
	}
	if n, ok := coerceNumber(pick(pos, "maxMembers", "max_members")); ok {
		out.MaxMembers = &n
	}
	if b, ok := coerceBool(pick(pos, "isRequired", "is_required", "required")); ok {
		out.IsRequired = &b
	}
	return out
}

// pick returns the first present key from m.
func pick(m map[string]interface{}, keys ...string) interface{} {
	for _, key := range keys {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return nil
}
