package challenge

import "github.com/abhisek/codehunt/internal/llm"

// ChallengeSchema defines the JSON shape the provider must answer with.
var ChallengeSchema = &llm.Schema{
	Name:        "code-challenge",
	Description: "A single navigation or modification challenge grounded in the given codebase",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"challenge": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"type": map[string]any{
						"type":        "string",
						"enum":        []any{"navigation", "modification"},
						"description": "navigation: find something; modification: change something",
					},
					"title": map[string]any{
						"type":        "string",
						"description": "Short, engaging title (max 10 words)",
					},
					"description": map[string]any{
						"type":        "string",
						"description": "Clear, detailed instructions for the user (2-3 sentences)",
					},
					"target": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"filePath": map[string]any{
								"type":        "string",
								"description": "Exact path of one of the listed files",
							},
							"lineNumber": map[string]any{
								"type":        "integer",
								"minimum":     1,
								"description": "1-based line to navigate to (navigation only)",
							},
							"pattern": map[string]any{
								"type":        "string",
								"description": "Regular expression used to verify the result (optional)",
							},
							"functionName": map[string]any{
								"type": "string",
							},
							"className": map[string]any{
								"type": "string",
							},
						},
						"required": []any{"filePath"},
					},
					"expectedAction": map[string]any{
						"type":        "string",
						"description": "What the user needs to do, e.g. 'Find the function', 'Add error handling'",
					},
					"hints": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"minItems":    2,
						"maxItems":    2,
						"description": "Exactly 2 hints, least revealing first",
					},
					"difficulty": map[string]any{
						"type": "string",
						"enum": []any{"easy", "medium", "hard"},
					},
				},
				"required": []any{"type", "title", "description", "target", "expectedAction", "hints", "difficulty"},
			},
		},
		"required": []any{"challenge"},
	},
}
