package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Strob0t/Karuna/internal/domain"
	"github.com/Strob0t/Karuna/internal/domain/chat"
	"github.com/Strob0t/Karuna/internal/domain/diagnosis"
	"github.com/Strob0t/Karuna/internal/port/llm"
)

// ErrUnparseableResponse is returned when the model reply holds no usable
// JSON assessment.
var ErrUnparseableResponse = errors.New("failed to parse AI response")

var jsonFence = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

const diagnosisPrompt = `You are a medical assistant AI that helps users understand their symptoms and decide on next steps. Given a natural-language description of symptoms:

1. Identify the most likely disease or condition. Consider every detail given, including severity, duration and accompanying symptoms, and do not assume anything that was not mentioned. If the information is not enough for a diagnosis, say so and recommend consulting a general physician.
2. If the symptoms suggest a potentially life-threatening condition (for example chest pain, difficulty breathing, severe bleeding or loss of consciousness), mark it as an emergency and recommend immediate medical attention.
3. For non-emergency conditions, recommend over-the-counter medications available under the PM Janaushadhi Yojana in India that relieve the symptoms. Only suggest symptomatic relief such as painkillers (e.g. Paracetamol), antipyretics, antihistamines (e.g. Cetirizine) or antacids (e.g. Ranitidine). Never suggest antibiotics, steroids or other prescription-only medication.
4. Suggest the type of specialist doctor to consult.
5. Give dietary suggestions that help with the symptoms or recovery, tailored to the Indian palate with traditional ingredients and flavours.

Respond with a single JSON object inside a json code block, with these keys:
- "diagnosis": string describing the most likely condition, explaining how the symptoms relate to it rather than restating them. Prefix emergencies with "Emergency: ". If no diagnosis is possible use "Unable to determine based on provided symptoms."
- "medications": array of objects with "name" (e.g. "Paracetamol") and "description" (e.g. "For headache and mild pain relief.").
- "prescription": array of the medication names only. For oral rehydration solution use "Oral Rehydration Salts".
- "specialist": string. Use "Emergency Services" for emergencies, otherwise "General Physician" or a specific specialist such as "Urologist" or "ENT Specialist".
- "dietary_suggestions": array of strings.
- "disclaimer": "This information is for informational purposes only and not a substitute for professional medical advice. Please consult a healthcare provider for accurate diagnosis and treatment."

Do not include "PM Janaushadhi" in medication names. Output nothing besides the JSON.

The symptoms provided by the patient are: `

// DiagnosisService turns a symptom description into a structured assessment.
type DiagnosisService struct {
	model llm.Generator
}

// NewDiagnosisService creates a new DiagnosisService.
func NewDiagnosisService(model llm.Generator) *DiagnosisService {
	return &DiagnosisService{model: model}
}

// Diagnose asks the model for an assessment of symptoms.
func (s *DiagnosisService) Diagnose(ctx context.Context, symptoms string) (*diagnosis.Result, error) {
	if strings.TrimSpace(symptoms) == "" {
		return nil, fmt.Errorf("invalid symptoms input: %w", domain.ErrValidation)
	}

	reply, err := s.model.Generate(ctx, []chat.Message{
		{Role: chat.RoleUser, Content: diagnosisPrompt + symptoms},
	})
	if err != nil {
		return nil, fmt.Errorf("generate diagnosis: %w", err)
	}

	return parseDiagnosis(reply)
}

// parseDiagnosis extracts the fenced json block from a model reply.
func parseDiagnosis(reply string) (*diagnosis.Result, error) {
	m := jsonFence.FindStringSubmatch(reply)
	if m == nil || m[1] == "" {
		return nil, ErrUnparseableResponse
	}
	return decodeResult(m[1])
}

func decodeResult(raw string) (*diagnosis.Result, error) {
	var res diagnosis.Result
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnparseableResponse, err)
	}
	return &res, nil
}
