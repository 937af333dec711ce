package synthesis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"github.com/misty-step/bibliomnomnom/internal/models"
)

// artifactsSchema is the bit-exact response contract sent to the LLM:
// exactly five required top-level arrays, no extra properties anywhere.
var artifactsSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"insights": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"title":   {Type: genai.TypeString},
					"content": {Type: genai.TypeString},
				},
				Required: []string{"title", "content"},
			},
		},
		"openQuestions": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
		"quotes": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"text":   {Type: genai.TypeString},
					"source": {Type: genai.TypeString},
				},
				Required: []string{"text"},
			},
		},
		"followUpQuestions": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
		"contextExpansions": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"title":   {Type: genai.TypeString},
					"content": {Type: genai.TypeString},
				},
				Required: []string{"title", "content"},
			},
		},
	},
	Required: []string{"insights", "openQuestions", "quotes", "followUpQuestions", "contextExpansions"},
}

// parseArtifacts decodes and validates an LLM response body. Unknown
// properties, malformed JSON, or a missing array are all schema
// violations, which the engine treats as an LLM failure.
func parseArtifacts(raw string) (*models.SynthesisArtifacts, error) {
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	if raw == "" {
		return nil, fmt.Errorf("empty response")
	}

	// First pass: reject missing or extra top-level keys.
	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &top); err != nil {
		return nil, fmt.Errorf("malformed JSON response: %w", err)
	}
	for _, key := range artifactsSchema.Required {
		if _, ok := top[key]; !ok {
			return nil, fmt.Errorf("response missing required key %q", key)
		}
	}
	for key := range top {
		if _, ok := artifactsSchema.Properties[key]; !ok {
			return nil, fmt.Errorf("response has unexpected key %q", key)
		}
	}

	var artifacts models.SynthesisArtifacts
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&artifacts); err != nil {
		return nil, fmt.Errorf("response violates artifact schema: %w", err)
	}

	return &artifacts, nil
}
