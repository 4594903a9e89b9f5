// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cloud

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"google.golang.org/genai"
)

// ErrSchemaViolation is returned when a model answer does not match the
// declared response schema.
var ErrSchemaViolation = errors.New("response does not match schema")

// Allowed values for the enumerated analysis fields.
var (
	Sentiments         = []string{"positive", "neutral", "negative", "mixed"}
	ResolutionStatuses = []string{"resolved", "unresolved", "escalated", "unknown"}
)

// CallAnalysisSchema is the response schema requested from the model.
var CallAnalysisSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"summary":           {Type: genai.TypeString, Description: "A short summary of the call."},
		"customer_intent":   {Type: genai.TypeString, Description: "What the customer wanted to achieve."},
		"agent_actions":     {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"sentiment":         {Type: genai.TypeString, Enum: Sentiments},
		"resolution_status": {Type: genai.TypeString, Enum: ResolutionStatuses},
		"topics":            {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"action_items": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"owner":       {Type: genai.TypeString},
					"description": {Type: genai.TypeString},
				},
				Required: []string{"owner", "description"},
			},
		},
	},
	Required:         []string{"summary", "customer_intent", "agent_actions", "sentiment", "resolution_status", "topics", "action_items"},
	PropertyOrdering: []string{"summary", "customer_intent", "agent_actions", "sentiment", "resolution_status", "topics", "action_items"},
}

// JSONSchema converts a genai schema into a standard JSON Schema document,
// as accepted by OpenAI-compatible structured output.
func JSONSchema(s *genai.Schema) json.RawMessage {
	out, _ := json.Marshal(toJSONSchema(s))
	return out
}

func toJSONSchema(s *genai.Schema) map[string]any {
	out := map[string]any{"type": strings.ToLower(string(s.Type))}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		out["enum"] = s.Enum
	}
	if s.Items != nil {
		out["items"] = toJSONSchema(s.Items)
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for k, v := range s.Properties {
			props[k] = toJSONSchema(v)
		}
		out["properties"] = props
		out["additionalProperties"] = false
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	return out
}

// ValidateAgainstSchema checks that data is JSON matching s. Unknown
// properties are ignored.
func ValidateAgainstSchema(data []byte, s *genai.Schema) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	if err := validateValue("$", v, s); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	return nil
}

func validateValue(path string, v any, s *genai.Schema) error {
	switch s.Type {
	case genai.TypeObject:
		obj, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("%s: expected object", path)
		}
		for _, name := range s.Required {
			if _, ok := obj[name]; !ok {
				return fmt.Errorf("%s: missing required property %q", path, name)
			}
		}
		for name, prop := range s.Properties {
			if value, ok := obj[name]; ok {
				if err := validateValue(path+"."+name, value, prop); err != nil {
					return err
				}
			}
		}
	case genai.TypeArray:
		arr, ok := v.([]any)
		if !ok {
			return fmt.Errorf("%s: expected array", path)
		}
		if s.Items != nil {
			for i, item := range arr {
				if err := validateValue(fmt.Sprintf("%s[%d]", path, i), item, s.Items); err != nil {
					return err
				}
			}
		}
	case genai.TypeString:
		str, ok := v.(string)
		if !ok {
			return fmt.Errorf("%s: expected string", path)
		}
		if len(s.Enum) > 0 && !slices.Contains(s.Enum, str) {
			return fmt.Errorf("%s: %q is not one of %v", path, str, s.Enum)
		}
	case genai.TypeNumber, genai.TypeInteger:
		if _, ok := v.(float64); !ok {
			return fmt.Errorf("%s: expected number", path)
		}
	case genai.TypeBoolean:
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("%s: expected boolean", path)
		}
	}
	return nil
}
