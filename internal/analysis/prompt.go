package analysis

import (
	"fmt"
	"strings"
)

const SystemPrompt = "You are a medical triage assistant. Always respond with valid JSON only, no markdown formatting."

const safetyGuidelines = `CRITICAL SAFETY GUIDELINES:
1. If patient mentions chest pain, severe difficulty breathing, uncontrolled bleeding, sudden numbness, confusion, or loss of consciousness - return EMERGENCY triage only.
2. For ages < 2 or > 65, be conservative and escalate triage level.
3. For pregnant patients, automatically escalate at least one level and avoid medications contraindicated in pregnancy.
4. ONLY suggest OTC medications - never prescribe medications.
5. If unsure about anything, escalate the triage level.`

const responseContract = `REQUIRED JSON RESPONSE FORMAT (RESPOND ONLY WITH VALID JSON, NO MARKDOWN, NO CODE BLOCKS):
{
  "triageLevel": "emergency" | "urgent-visit" | "see-doctor" | "self-care",
  "triageReason": "Brief explanation of the triage decision",
  "possibleConditions": ["condition 1", "condition 2", "condition 3"],
  "recommendations": {
    "medicines": [
      {
        "name": "OTC medication name",
        "dose": "dose and frequency",
        "notes": "why this medication and precautions",
        "evidenceLevel": "Strong/Moderate/Supportive"
      }
    ],
    "homeRemedies": ["remedy 1", "remedy 2", "remedy 3"],
    "whatToDo": ["action 1", "action 2", "action 3"],
    "whatNotToDo": ["avoid 1", "avoid 2"],
    "dietaryAdvice": ["diet tip 1", "diet tip 2"],
    "doctorSpecialization": "Type of doctor to consult if needed",
    "emergencyContacts": [
      {
        "service": "Emergency Services",
        "number": "112",
        "description": "India emergency number"
      }
    ]
  },
  "followUpAdvice": "When to seek further medical attention",
  "confidenceScore": 0.0 to 1.0,
  "disclaimer": "` + Disclaimer + `"
}`

// BuildPrompt renders the user prompt for a validated report. It has no
// side effects and the same report always yields the same prompt.
func BuildPrompt(r SymptomReport) string {
	var b strings.Builder

	b.WriteString("You are a medical triage assistant for an educational demonstration tool. ")
	b.WriteString("Analyze the following symptoms and provide structured health guidance.\n\n")

	b.WriteString("SYMPTOM INFORMATION:\n")
	fmt.Fprintf(&b, "- Primary Symptoms: %s\n", strings.TrimSpace(r.SymptomsText))
	fmt.Fprintf(&b, "- Severity Level: %s\n", r.Severity)
	fmt.Fprintf(&b, "- Patient Age: %d\n", r.Age)
	gender := strings.TrimSpace(r.Gender)
	if gender == "" {
		gender = "Not specified"
	}
	fmt.Fprintf(&b, "- Gender: %s\n", gender)
	writeOptional(&b, "Symptom Onset", r.Onset)
	writeOptional(&b, "Duration", r.Duration)
	writeOptional(&b, "Existing Conditions", r.ExistingConditions)
	writeOptional(&b, "Current Medications", r.CurrentMedications)
	writeOptional(&b, "Allergies", r.Allergies)
	if r.IsPregnant {
		b.WriteString("- Patient is pregnant or might be pregnant\n")
	}

	b.WriteString("\n")
	b.WriteString(safetyGuidelines)
	b.WriteString("\n\n")
	b.WriteString(responseContract)
	b.WriteString("\n\nProvide detailed, helpful, and accurate medical guidance based on the symptoms. Be thorough in your analysis.")

	return b.String()
}

func writeOptional(b *strings.Builder, label, value string) {
	if v := strings.TrimSpace(value); v != "" {
		fmt.Fprintf(b, "- %s: %s\n", label, v)
	}
}
