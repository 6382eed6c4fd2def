package analysis

import "fmt"

const Disclaimer = "This is an educational tool only and not medical advice. Always consult healthcare professionals for proper diagnosis and treatment."

const FallbackConfidence = 0.5

var severityTriage = map[Severity]TriageLevel{
	SeverityCritical: TriageEmergency,
	SeveritySevere:   TriageUrgentVisit,
	SeverityModerate: TriageSeeDoctor,
	SeverityMild:     TriageSelfCare,
}

// TriageForSeverity maps a reported severity straight to a triage level.
// Unknown severities land on see-doctor.
func TriageForSeverity(s Severity) TriageLevel {
	if level, ok := severityTriage[s]; ok {
		return level
	}
	return TriageSeeDoctor
}

// Fallback builds the rule based recommendation used when the model is
// unavailable or its answer cannot be used. It never fails.
func Fallback(r SymptomReport) Recommendation {
	return Recommendation{
		TriageLevel:        TriageForSeverity(r.Severity),
		TriageReason:       fmt.Sprintf("Based on the reported %s symptoms, we recommend appropriate medical attention.", r.Severity),
		PossibleConditions: []string{"Further medical evaluation needed for accurate diagnosis"},
		Recommendations: Guidance{
			Medicines:    []Medicine{},
			HomeRemedies: []string{"Rest adequately", "Stay hydrated", "Monitor your symptoms"},
			WhatToDo: []string{
				"Keep track of your symptoms",
				"Note any changes or new symptoms",
				"Consult a healthcare provider",
			},
			WhatNotToDo: []string{
				"Do not ignore worsening symptoms",
				"Avoid self-medicating without professional advice",
			},
			DietaryAdvice:        []string{"Eat light, nutritious meals", "Avoid heavy or spicy foods"},
			DoctorSpecialization: "General Physician",
			EmergencyContacts: []EmergencyContact{
				{Service: "Emergency Services", Number: "112", Description: "India emergency number"},
				{Service: "Ambulance", Number: "102", Description: "Medical emergency"},
			},
		},
		FollowUpAdvice:  "If symptoms persist or worsen, please consult a doctor immediately.",
		ConfidenceScore: FallbackConfidence,
		Disclaimer:      Disclaimer,
	}
}
