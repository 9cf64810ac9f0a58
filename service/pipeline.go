package service

import (
	"context"
	"errors"
	"log"

	"awardforge-backend/models"
	"awardforge-backend/repository"

	"github.com/google/uuid"
)

var (
	ErrRecordInvalid = errors.New("record has validation errors")
	ErrNotConfigured = errors.New("pipeline component not set")
)

// PipelineOrchestrator sequences extraction, interpretation, mapping,
// validation and persistence. Each invocation owns its intermediate state, so
// concurrent invocations never share anything mutable.
type PipelineOrchestrator struct {
	extractor *DocumentTextExtractor
	backend   InterpretationBackend
	mapper    *FieldMapper
	validator *DataValidator
	writer    *repository.RecordRepository
}

// PipelineOption is a functional option for PipelineOrchestrator
type PipelineOption func(*PipelineOrchestrator)

// WithExtractor sets the document text extractor
func WithExtractor(extractor *DocumentTextExtractor) PipelineOption {
	return func(p *PipelineOrchestrator) {
		p.extractor = extractor
	}
}

// WithBackend sets the interpretation backend
func WithBackend(backend InterpretationBackend) PipelineOption {
	return func(p *PipelineOrchestrator) {
		p.backend = backend
	}
}

// WithMapper sets the field mapper
func WithMapper(mapper *FieldMapper) PipelineOption {
	return func(p *PipelineOrchestrator) {
		p.mapper = mapper
	}
}

// WithValidator sets the data validator
func WithValidator(validator *DataValidator) PipelineOption {
	return func(p *PipelineOrchestrator) {
		p.validator = validator
	}
}

// WithWriter sets the persistence writer
func WithWriter(writer *repository.RecordRepository) PipelineOption {
	return func(p *PipelineOrchestrator) {
		p.writer = writer
	}
}

// NewPipelineOrchestrator creates a pipeline orchestrator
func NewPipelineOrchestrator(opts ...PipelineOption) *PipelineOrchestrator {
	p := &PipelineOrchestrator{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// InterpretationOutcome carries everything one interpretation run produced:
// the canonical record, its validation result, and the provenance needed for
// the audit log should the user confirm persistence.
type InterpretationOutcome struct {
	Record        *models.CanonicalRecord       `json:"record"`
	Validation    *models.ValidationResult      `json:"validation"`
	Proposal      *models.InterpretationProposal `json:"proposal"`
	ExtractedText *models.ExtractedText         `json:"extracted_text"`
	Signals       *models.KeySignals            `json:"signals"`
	Backend       string                        `json:"backend"`
}

// Provenance packages the outcome's audit trail for persistence.
func (o *InterpretationOutcome) Provenance(filename, storagePath string) *models.Provenance {
	text := ""
	if o.ExtractedText != nil {
		text = o.ExtractedText.Text
	}
	return &models.Provenance{
		SourceText:     text,
		SourceFilename: filename,
		StoragePath:    storagePath,
		Backend:        o.Backend,
		Proposal:       o.Proposal,
	}
}

// Interpret runs stages 1-4 over one document: extract, preprocess,
// interpret, map, fix, validate. Only extraction failures surface as errors;
// backend unavailability is an ordinary code path that yields a
// low-confidence default record.
func (p *PipelineOrchestrator) Interpret(ctx context.Context, doc *models.RawDocument, userID uuid.UUID) (*InterpretationOutcome, error) {
	if p.extractor == nil || p.backend == nil || p.mapper == nil || p.validator == nil {
		return nil, ErrNotConfigured
	}

	extracted, err := p.extractor.Extract(doc)
	if err != nil {
		return nil, err
	}
	extracted.Text = Preprocess(extracted.Text)

	signals := ExtractKeyInformation(extracted.Text)
	log.Printf("Interpreting %s for user %s: %d pages, %d chars, backend %s",
		doc.Filename, userID, extracted.PageCount, len(extracted.Text), p.backend.Name())

	proposal := p.backend.Interpret(ctx, extracted.Text, doc.Filename)
	if len(proposal.ExtractedKeywords) == 0 {
		// The extractor's pattern-matched keywords are supplementary signal
		// when the backend supplies none of its own.
		proposal.ExtractedKeywords = signals.Keywords
	}

	record := p.mapper.MapToCanonical(proposal, extracted.Text)
	record = p.validator.FixCommonIssues(record)
	validation := p.validator.Validate(record)

	return &InterpretationOutcome{
		Record:        record,
		Validation:    validation,
		Proposal:      proposal,
		ExtractedText: extracted,
		Signals:       signals,
		Backend:       p.backend.Name(),
	}, nil
}

// Revalidate auto-repairs and re-validates a (possibly hand-edited) record.
func (p *PipelineOrchestrator) Revalidate(record *models.CanonicalRecord) (*models.CanonicalRecord, *models.ValidationResult, error) {
	if p.validator == nil {
		return nil, nil, ErrNotConfigured
	}
	fixed := p.validator.FixCommonIssues(record)
	return fixed, p.validator.Validate(fixed), nil
}

// Persist saves a confirmed record with its nested collections and audit
// trail. The record is re-validated first; persistence of an invalid record
// is refused.
func (p *PipelineOrchestrator) Persist(ctx context.Context, record *models.CanonicalRecord, prov *models.Provenance, userID uuid.UUID) (uuid.UUID, error) {
	if p.writer == nil || p.validator == nil {
		return uuid.Nil, ErrNotConfigured
	}

	fixed := p.validator.FixCommonIssues(record)
	if result := p.validator.Validate(fixed); !result.IsValid() {
		return uuid.Nil, ErrRecordInvalid
	}
	return p.writer.Save(ctx, fixed, prov, userID)
}

// PersistUpdate supersedes an existing record, rewriting the base row and
// re-creating its child collections.
func (p *PipelineOrchestrator) PersistUpdate(ctx context.Context, id uuid.UUID, record *models.CanonicalRecord, prov *models.Provenance, userID uuid.UUID) (uuid.UUID, error) {
	if p.writer == nil || p.validator == nil {
		return uuid.Nil, ErrNotConfigured
	}

	fixed := p.validator.FixCommonIssues(record)
	if result := p.validator.Validate(fixed); !result.IsValid() {
		return uuid.Nil, ErrRecordInvalid
	}
	return p.writer.Update(ctx, id, fixed, prov, userID)
}
