package domain

// Diagnosis is the structured result of a prediction request.
type Diagnosis struct {
	PrimaryDisease       string   `json:"primary_disease"`
	PrimaryDescription   string   `json:"primary_description"`
	PrimaryPrecautions   []string `json:"primary_precautions"`
	SecondaryDisease     string   `json:"secondary_disease"`
	SecondaryDescription string   `json:"secondary_description"`
	SecondaryPrecautions []string `json:"secondary_precautions"`
	SeverityScore        float64  `json:"severity_score,omitempty"`
	RecommendDoctor      bool     `json:"recommend_doctor"`
}

// SymptomCheck is the backend verdict on one candidate symptom.
// A non-empty InvalidSymptom marks the candidate as rejected.
type SymptomCheck struct {
	InvalidSymptom  string   `json:"invalid_symptom,omitempty"`
	Suggestions     []string `json:"suggestions,omitempty"`
	RelatedSymptoms []string `json:"related_symptoms,omitempty"`
}

// Valid reports whether the backend accepted the symptom.
func (c *SymptomCheck) Valid() bool {
	return c.InvalidSymptom == ""
}
