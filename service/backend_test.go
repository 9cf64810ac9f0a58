package service

import (
	"testing"
	"time"

	"awardforge-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProposalResponse(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		wantOK bool
	}{
		{
			name:   "bare json object",
			raw:    `{"awardType":"star_point","confidence":0.8}`,
			wantOK: true,
		},
		{
			name:   "fenced json block",
			raw:    "```json\n{\"awardType\":\"efficient_star\"}\n```",
			wantOK: true,
		},
		{
			name:   "prose around the object",
			raw:    "Here is the result:\n{\"awardType\":\"star_point\"}\nLet me know if you need anything else.",
			wantOK: true,
		},
		{
			name:   "braces inside string values",
			raw:    `{"awardType":"efficient_star","notes":"uses {curly} braces and a \" quote"}`,
			wantOK: true,
		},
		{
			name:   "empty response",
			raw:    "",
			wantOK: false,
		},
		{
			name:   "no json at all",
			raw:    "I could not analyze this document.",
			wantOK: false,
		},
		{
			name:   "unbalanced object",
			raw:    `{"awardType":"star_point"`,
			wantOK: false,
		},
		{
			name:   "object that is not json",
			raw:    "{not valid json}",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proposal, ok := parseProposalResponse(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				require.NotNil(t, proposal)
				assert.True(t, models.ValidAwardType(proposal.AwardType))
			}
		})
	}
}

func TestParseProposalResponseFullShape(t *testing.T) {
	raw := `{
		"awardType": "star_point",
		"basicFields": {
			"title": "Star Point Challenge",
			"description": "Earn points through member activities.",
			"deadline": "2025-10-01",
			"externalLink": "https://example.org/awards"
		},
		"categoryFields": {"categoryId": "cat-7", "categoryType": "membership"},
		"specificFields": {"objective": "250"},
		"scoreRules": [
			{
				"name": "Recruiting",
				"baseScore": 10,
				"conditions": [
					{"type": "memberCount", "memberCount": 5, "points": 10}
				]
			}
		],
		"teamManagement": {"positions": [{"name": "Chair", "maxMembers": 1, "isRequired": true}]},
		"confidence": 0.9,
		"extractedKeywords": ["member", "points"],
		"notes": "clear document"
	}`

	proposal, ok := parseProposalResponse(raw)
	require.True(t, ok)

	assert.Equal(t, models.AwardTypeStarPoint, proposal.AwardType)
	assert.Equal(t, "Star Point Challenge", proposal.BasicFields.Title)
	assert.Equal(t, "2025-10-01", proposal.BasicFields.Deadline)
	assert.Equal(t, "https://example.org/awards", proposal.BasicFields.ExternalLink)

	require.NotNil(t, proposal.CategoryFields)
	assert.Equal(t, "cat-7", proposal.CategoryFields.CategoryID)

	// Quoted numerics are accepted at the coercion boundary.
	require.NotNil(t, proposal.SpecificFields.Objective)
	assert.Equal(t, 250.0, *proposal.SpecificFields.Objective)

	require.Len(t, proposal.ScoreRules, 1)
	rule := proposal.ScoreRules[0]
	assert.Equal(t, "Recruiting", rule.Name)
	assert.Equal(t, 10.0, rule.BaseScore)
	assert.True(t, rule.Enabled, "enabled defaults to true when omitted")
	require.Len(t, rule.Conditions, 1)
	assert.Equal(t, "memberCount", rule.Conditions[0].Type)
	require.NotNil(t, rule.Conditions[0].MemberCount)
	assert.Equal(t, 5.0, *rule.Conditions[0].MemberCount)

	require.NotNil(t, proposal.TeamManagement)
	require.Len(t, proposal.TeamManagement.Positions, 1)
	pos := proposal.TeamManagement.Positions[0]
	assert.Equal(t, "Chair", pos.Name)
	require.NotNil(t, pos.IsRequired)
	assert.True(t, *pos.IsRequired)

	assert.Equal(t, 0.9, proposal.Confidence)
	assert.Equal(t, []string{"member", "points"}, proposal.ExtractedKeywords)
}

func TestStandardizeProposalDefensiveCoercion(t *testing.T) {
	raw := `{
		"awardType": "GRAND_PRIZE",
		"basicFields": {"title": 42, "deadline": null},
		"specificFields": {"no": -3},
		"scoreRules": [
			{"name": "Rule", "baseScore": -5, "enabled": "no", "conditions": [
				{"type": "teleportCount", "points": "7"}
			]},
			"not an object"
		],
		"confidence": 3.5
	}`

	proposal, ok := parseProposalResponse(raw)
	require.True(t, ok)

	// Unknown award types collapse to the default variant.
	assert.Equal(t, models.AwardTypeEfficientStar, proposal.AwardType)
	assert.Equal(t, "42", proposal.BasicFields.Title)
	assert.Equal(t, "", proposal.BasicFields.Deadline)

	// Raw specifics pass through untouched; the mapper floors them later.
	require.NotNil(t, proposal.SpecificFields.No)
	assert.Equal(t, -3.0, *proposal.SpecificFields.No)

	require.Len(t, proposal.ScoreRules, 1)
	rule := proposal.ScoreRules[0]
	assert.Equal(t, 0.0, rule.BaseScore)
	assert.False(t, rule.Enabled)

	// Unknown condition types pass through for the validator to flag.
	require.Len(t, rule.Conditions, 1)
	assert.Equal(t, "teleportCount", rule.Conditions[0].Type)
	assert.Equal(t, 7.0, rule.Conditions[0].Points)

	assert.Equal(t, 1.0, proposal.Confidence)
}

func TestDefaultProposalIsDeterministic(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	first := defaultProposalAt("report.pdf", now)
	second := defaultProposalAt("report.pdf", now)
	assert.Equal(t, first, second)

	assert.Equal(t, models.AwardTypeEfficientStar, first.AwardType)
	assert.Equal(t, fallbackConfidence, first.Confidence)
	assert.Equal(t, "2026-06-01", first.BasicFields.Deadline)
	assert.NotEmpty(t, first.BasicFields.Title)
	assert.NotNil(t, first.ScoreRules)
	assert.Empty(t, first.ScoreRules)
	assert.Contains(t, first.Notes, "report.pdf")
}

func TestBuildInterpretationPromptTruncatesLongText(t *testing.T) {
	long := make([]byte, maxPromptChars+500)
	for i := range long {
		long[i] = 'a'
	}

	prompt := buildInterpretationPrompt(string(long), "long.pdf")
	assert.Contains(t, prompt, "[Content truncated due to length...]")
	assert.Contains(t, prompt, "long.pdf")
	assert.Less(t, len(prompt), maxPromptChars+5000)
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "no fence", input: `{"a":1}`, want: `{"a":1}`},
		{name: "json fence", input: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", input: "```\n{\"a\":1}\n```", want: `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripCodeFence(tt.input))
		})
	}
}
