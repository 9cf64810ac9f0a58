package service

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"awardforge-backend/models"

	"github.com/google/uuid"
)

// FieldMapper maps a backend proposal into the canonical record shape.
// Mapping is total: it never fails and always yields a structurally valid
// record; semantic problems are the validator's job.
type FieldMapper struct {
	now   func() time.Time
	newID func() uuid.UUID
}

// NewFieldMapper creates a mapper using the real clock and fresh UUIDs.
func NewFieldMapper() *FieldMapper {
	return &FieldMapper{
		now:   time.Now,
		newID: uuid.New,
	}
}

// deadlineFormats is the ordered list of known deadline layouts. Day-first
// forms are tried before month-first, so an ambiguous 03/04/2025 reads as
// April 3rd.
var deadlineFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"01/02/2006",
	"02-01-2006",
	"01-02-2006",
	"2006年01月02日",
	"2006年1月2日",
}

// generalDateFormats are the fallback layouts for free-text dates.
var generalDateFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2006.01.02",
}

// normalizeDeadline parses s against all known formats and renders the result
// as YYYY-MM-DD. Unparsable input becomes one year from now; date problems
// are warnings at validation time, never mapping errors.
func (m *FieldMapper) normalizeDeadline(s string) string {
	s = strings.TrimSpace(s)
	if s != "" {
		for _, layout := range deadlineFormats {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Format("2006-01-02")
			}
		}
		for _, layout := range generalDateFormats {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Format("2006-01-02")
			}
		}
	}
	return m.now().AddDate(1, 0, 0).Format("2006-01-02")
}

// sanitizeText trims, collapses internal whitespace, drops line breaks, and
// strips runes outside the allow-list (printable ASCII plus CJK Unified
// Ideographs). Removes control characters and mis-decoded bytes without
// rejecting bilingual content.
func sanitizeText(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))
	lastSpace := false
	for _, r := range s {
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '　':
			if !lastSpace && buf.Len() > 0 {
				buf.WriteByte(' ')
				lastSpace = true
			}
		case (r >= 0x20 && r <= 0x7E) || isCJK(r):
			buf.WriteRune(r)
			lastSpace = false
		}
	}
	return strings.TrimRight(buf.String(), " ")
}

// sanitizeOptional returns a pointer to the sanitized string, or nil when
// nothing printable remains.
func sanitizeOptional(s string) *string {
	clean := sanitizeText(s)
	if clean == "" {
		return nil
	}
	return &clean
}

// MapToCanonical maps/coerces a proposal into a CanonicalRecord. Only the
// specific fields relevant to the proposal's award type are populated; ids
// supplied by the backend are never trusted and every nested entity gets a
// fresh one.
func (m *FieldMapper) MapToCanonical(p *models.InterpretationProposal, extractedText string) *models.CanonicalRecord {
	if p == nil {
		p = &models.InterpretationProposal{}
	}

	awardType := p.AwardType
	if !models.ValidAwardType(awardType) {
		awardType = models.AwardTypeEfficientStar
	}

	record := &models.CanonicalRecord{
		AwardType:         awardType,
		Title:             sanitizeText(p.BasicFields.Title),
		Description:       sanitizeText(p.BasicFields.Description),
		Deadline:          m.normalizeDeadline(p.BasicFields.Deadline),
		ExternalLink:      sanitizeText(p.BasicFields.ExternalLink),
		ScoreRules:        make([]models.ScoreRule, 0, len(p.ScoreRules)),
		Confidence:        p.Confidence,
		ExtractedKeywords: make([]string, 0, len(p.ExtractedKeywords)),
		Notes:             sanitizeText(p.Notes),
		SourceCharCount:   utf8.RuneCountInString(extractedText),
	}

	switch awardType {
	case models.AwardTypeEfficientStar:
		fields := &models.EfficientStarFields{
			Guidelines: sanitizeText(p.SpecificFields.Guidelines),
		}
		if p.SpecificFields.No != nil {
			fields.No = int(math.Max(0, math.Round(*p.SpecificFields.No)))
		}
		record.EfficientStar = fields
	case models.AwardTypeStarPoint:
		fields := &models.StarPointFields{}
		if p.SpecificFields.Objective != nil && *p.SpecificFields.Objective > 0 {
			fields.Objective = *p.SpecificFields.Objective
		}
		record.StarPoint = fields
		if p.CategoryFields != nil {
			record.Category = &models.CategoryFields{
				CategoryID:   sanitizeText(p.CategoryFields.CategoryID),
				CategoryType: sanitizeText(p.CategoryFields.CategoryType),
			}
		}
	case models.AwardTypeNationalAreaIncentive:
		record.NationalAreaIncentive = &models.NationalAreaIncentiveFields{
			NationalAllocation: sanitizeText(p.SpecificFields.NationalAllocation),
			AreaAllocation:     sanitizeText(p.SpecificFields.AreaAllocation),
			Status:             strings.ToLower(sanitizeText(p.SpecificFields.Status)),
		}
	}

	for _, rule := range p.ScoreRules {
		record.ScoreRules = append(record.ScoreRules, m.mapRule(rule))
	}

	if p.TeamManagement != nil {
		team := &models.TeamManagement{
			Positions: make([]models.TeamPosition, 0, len(p.TeamManagement.Positions)),
		}
		for _, pos := range p.TeamManagement.Positions {
			team.Positions = append(team.Positions, m.mapPosition(pos))
		}
		record.TeamManagement = team
	}

	for _, kw := range p.ExtractedKeywords {
		if clean := sanitizeText(kw); clean != "" {
			record.ExtractedKeywords = append(record.ExtractedKeywords, clean)
		}
	}

	return record
}

func (m *FieldMapper) mapRule(rule models.ProposedRule) models.ScoreRule {
	out := models.ScoreRule{
		ID:          m.newID(),
		Name:        sanitizeText(rule.Name),
		BaseScore:   nonNegative(rule.BaseScore),
		Description: sanitizeText(rule.Description),
		Enabled:     rule.Enabled,
		Conditions:  make([]models.ScoreCondition, 0, len(rule.Conditions)),
	}
	for _, cond := range rule.Conditions {
		out.Conditions = append(out.Conditions, m.mapCondition(cond))
	}
	return out
}

func (m *FieldMapper) mapCondition(cond models.ProposedCondition) models.ScoreCondition {
	return models.ScoreCondition{
		ID:               m.newID(),
		Type:             models.ScoreConditionType(strings.TrimSpace(cond.Type)),
		MemberCount:      nonNegativePtr(cond.MemberCount),
		NonMemberCount:   nonNegativePtr(cond.NonMemberCount),
		TotalCount:       nonNegativePtr(cond.TotalCount),
		ActivityCount:    nonNegativePtr(cond.ActivityCount),
		ActivityType:     sanitizeOptional(cond.ActivityType),
		ActivityCategory: sanitizeOptional(cond.ActivityCategory),
		SpecificActivity: sanitizeOptional(cond.SpecificActivity),
		PartnerCount:     nonNegativePtr(cond.PartnerCount),
		Points:           nonNegative(cond.Points),
		Description:      sanitizeText(cond.Description),
	}
}

func (m *FieldMapper) mapPosition(pos models.ProposedPosition) models.TeamPosition {
	out := models.TeamPosition{
		ID:          m.newID(),
		Name:        sanitizeText(pos.Name),
		Description: sanitizeText(pos.Description),
		IsRequired:  pos.IsRequired,
	}
	out.MaxMembers = nonNegativePtr(pos.MaxMembers)
	return out
}

func nonNegative(n float64) float64 {
	if math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
		return 0
	}
	return n
}

func nonNegativePtr(n *float64) *float64 {
	if n == nil {
		return nil
	}
	v := nonNegative(*n)
	return &v
}
