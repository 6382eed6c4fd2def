package analysis

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
	SeverityCritical Severity = "critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityMild, SeverityModerate, SeveritySevere, SeverityCritical:
		return true
	}
	return false
}

// TriageLevel orders urgency: emergency > urgent-visit > see-doctor > self-care.
type TriageLevel string

const (
	TriageEmergency   TriageLevel = "emergency"
	TriageUrgentVisit TriageLevel = "urgent-visit"
	TriageSeeDoctor   TriageLevel = "see-doctor"
	TriageSelfCare    TriageLevel = "self-care"
)

// Source tells where an analysis result came from.
type Source string

const (
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)

// FallbackReason is the category of the failure that sent a request down
// the fallback path.
type FallbackReason string

const (
	ReasonNone          FallbackReason = ""
	ReasonNotConfigured FallbackReason = "not_configured"
	ReasonUpstream      FallbackReason = "upstream"
	ReasonTimeout       FallbackReason = "timeout"
	ReasonEmptyResponse FallbackReason = "empty_response"
	ReasonUnparsable    FallbackReason = "unparsable"
)

const (
	MinSymptomsLength = 10
	MinAge            = 1
	MaxAge            = 120
)

// SymptomReport is the user's description of what they are experiencing.
type SymptomReport struct {
	SymptomsText       string   `json:"symptomsText"`
	Severity           Severity `json:"severity"`
	Age                int      `json:"age"`
	Gender             string   `json:"gender,omitempty"`
	Onset              string   `json:"onset,omitempty"`
	Duration           string   `json:"duration,omitempty"`
	ExistingConditions string   `json:"existingConditions,omitempty"`
	CurrentMedications string   `json:"currentMedications,omitempty"`
	Allergies          string   `json:"allergies,omitempty"`
	IsPregnant         bool     `json:"isPregnant"`
}

var ErrInvalidReport = errors.New("invalid symptom report")

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Message }
func (e *ValidationError) Unwrap() error { return ErrInvalidReport }

// Validate enforces the input contract. The first violation wins.
func (r SymptomReport) Validate() error {
	if len([]rune(r.SymptomsText)) < MinSymptomsLength {
		return &ValidationError{Field: "symptomsText", Message: "Please describe symptoms in at least 10 characters"}
	}
	if !r.Severity.Valid() {
		return &ValidationError{Field: "severity", Message: "Please select a valid severity level"}
	}
	if r.Age < MinAge || r.Age > MaxAge {
		return &ValidationError{Field: "age", Message: "Please enter a valid age"}
	}
	return nil
}

type Medicine struct {
	Name          string `json:"name"`
	Dose          string `json:"dose"`
	Notes         string `json:"notes"`
	EvidenceLevel string `json:"evidenceLevel"`
}

type EmergencyContact struct {
	Service     string `json:"service"`
	Number      string `json:"number"`
	Description string `json:"description"`
}

type Guidance struct {
	Medicines            []Medicine         `json:"medicines"`
	HomeRemedies         []string           `json:"homeRemedies"`
	WhatToDo             []string           `json:"whatToDo"`
	WhatNotToDo          []string           `json:"whatNotToDo"`
	DietaryAdvice        []string           `json:"dietaryAdvice"`
	DoctorSpecialization string             `json:"doctorSpecialization"`
	EmergencyContacts    []EmergencyContact `json:"emergencyContacts"`
}

// Recommendation is the structured triage answer.
type Recommendation struct {
	TriageLevel        TriageLevel `json:"triageLevel"`
	TriageReason       string      `json:"triageReason"`
	PossibleConditions []string    `json:"possibleConditions"`
	Recommendations    Guidance    `json:"recommendations"`
	FollowUpAdvice     string      `json:"followUpAdvice"`
	ConfidenceScore    float64     `json:"confidenceScore"`
	Disclaimer         string      `json:"disclaimer"`
}

// Session is one persisted report/result pair. AnalysisResult holds the
// JSON object exactly as produced: model output is stored unvalidated.
type Session struct {
	ID     uuid.UUID `json:"_id"`
	UserID string    `json:"userId"`
	SymptomReport
	AnalysisResult json.RawMessage `json:"analysisResult"`
	Source         Source          `json:"source"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// Recommendation decodes AnalysisResult into the typed shape. Fields the
// model got wrong stay at their zero value; only a result that is not a
// JSON object at all is an error.
func (s *Session) Recommendation() (Recommendation, error) {
	var rec Recommendation
	if err := json.Unmarshal(s.AnalysisResult, &rec); err == nil {
		return rec, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(s.AnalysisResult, &fields); err != nil {
		return Recommendation{}, err
	}
	decodeField(fields, "triageLevel", &rec.TriageLevel)
	decodeField(fields, "triageReason", &rec.TriageReason)
	decodeField(fields, "possibleConditions", &rec.PossibleConditions)
	decodeField(fields, "recommendations", &rec.Recommendations)
	decodeField(fields, "followUpAdvice", &rec.FollowUpAdvice)
	decodeField(fields, "confidenceScore", &rec.ConfidenceScore)
	decodeField(fields, "disclaimer", &rec.Disclaimer)
	return rec, nil
}

func decodeField(fields map[string]json.RawMessage, key string, dst any) {
	if raw, ok := fields[key]; ok {
		_ = json.Unmarshal(raw, dst)
	}
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type HistoryPage struct {
	Sessions   []Session  `json:"sessions"`
	Pagination Pagination `json:"pagination"`
}
