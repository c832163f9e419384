// internal/ai/gemini/schemas.go
package gemini

// JSON schemas the parsed AI payloads are validated against before
// anything is persisted.

var analysisSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"skills", "experience", "education", "certifications"},
	"properties": map[string]interface{}{
		"skills": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"experience": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"company":     map[string]interface{}{"type": "string"},
					"title":       map[string]interface{}{"type": "string"},
					"duration":    map[string]interface{}{"type": "string"},
					"description": map[string]interface{}{"type": "string"},
				},
			},
		},
		"education": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"institution": map[string]interface{}{"type": "string"},
					"degree":      map[string]interface{}{"type": "string"},
					"field":       map[string]interface{}{"type": "string"},
					"year":        map[string]interface{}{"type": "string"},
				},
			},
		},
		"certifications": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"summary": map[string]interface{}{"type": "string"},
	},
}

var matchSchema = map[string]interface{}{
	"type": "array",
	"items": map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"jobId", "matchScore"},
		"properties": map[string]interface{}{
			"jobId":       map[string]interface{}{"type": "string"},
			"matchScore":  map[string]interface{}{"type": "number"},
			"matchReason": map[string]interface{}{"type": "string"},
		},
	},
}

var improvementsSchema = map[string]interface{}{
	"type": "object",
	"required": []interface{}{
		"skillSuggestions", "experienceSuggestions", "formatSuggestions", "keywordSuggestions",
	},
	"properties": map[string]interface{}{
		"skillSuggestions":      suggestionList,
		"experienceSuggestions": suggestionList,
		"formatSuggestions":     suggestionList,
		"keywordSuggestions":    suggestionList,
	},
}

var suggestionList = map[string]interface{}{
	"type":  "array",
	"items": map[string]interface{}{"type": "string"},
}
