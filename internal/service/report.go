package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Strob0t/Karuna/internal/domain"
	"github.com/Strob0t/Karuna/internal/domain/chat"
	"github.com/Strob0t/Karuna/internal/domain/diagnosis"
	"github.com/Strob0t/Karuna/internal/port/llm"
)

var (
	// ErrNoText is returned when no text could be read from a report.
	ErrNoText = errors.New("failed to extract text from report")
	// ErrAnalysisFailed is returned when the model gives no usable answer.
	ErrAnalysisFailed = errors.New("report analysis failed")
)

// TextExtractor reads the text layer of an uploaded document.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte) (string, error)
}

var (
	blankLines   = regexp.MustCompile(`\n\s*\n`)
	runsOfSpace  = regexp.MustCompile(`\s{2,}`)
	nonPrintable = regexp.MustCompile(`[^\x20-\x7E\n]`)
)

const reportPrompt = `You are an AI medical assistant analyzing a patient's report. Do not mention the name of the patient, only their age.
Extract the symptoms, suggest a diagnosis, and recommend medications and necessary lifestyle changes.
Respond with a single valid JSON object with these keys:
- "diagnosis": brief diagnosis.
- "medications": array of objects with "name" and "description".
- "prescription": array of the prescribed medicine names.
- "specialist": suggested specialist.
- "dietary_suggestions": array of diet recommendations.
- "disclaimer": medical disclaimer.

Here is the extracted report:

`

// ReportService analyzes uploaded medical reports.
type ReportService struct {
	extractor TextExtractor
	model     llm.Generator
}

// NewReportService creates a new ReportService.
func NewReportService(extractor TextExtractor, model llm.Generator) *ReportService {
	return &ReportService{extractor: extractor, model: model}
}

// Analyze extracts the report text and asks the model for an assessment.
func (s *ReportService) Analyze(ctx context.Context, data []byte) (*diagnosis.Result, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("no report uploaded: %w", domain.ErrValidation)
	}

	text, err := s.extractor.ExtractText(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoText, err)
	}
	text = cleanReportText(text)
	if text == "" {
		return nil, ErrNoText
	}

	reply, err := s.model.Generate(ctx, []chat.Message{
		{Role: chat.RoleUser, Content: reportPrompt + text},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" || reply == "{}" {
		return nil, ErrAnalysisFailed
	}

	return parseReport(reply)
}

// cleanReportText collapses blank lines and whitespace runs and keeps only
// printable ASCII and line breaks.
func cleanReportText(text string) string {
	text = blankLines.ReplaceAllString(text, "\n")
	text = runsOfSpace.ReplaceAllString(text, " ")
	text = nonPrintable.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// parseReport accepts a fenced json block or a bare JSON reply.
func parseReport(reply string) (*diagnosis.Result, error) {
	if m := jsonFence.FindStringSubmatch(reply); m != nil {
		reply = m[1]
	}
	if reply == "" {
		return nil, ErrUnparseableResponse
	}
	return decodeResult(reply)
}
