package dialogue

import "github.com/abhisek/medsim/internal/llm"

// EvaluationSchema is the strict shape of an evaluator verdict.
var EvaluationSchema = &llm.Schema{
	Name:        "plan-evaluation",
	Description: "Verdict on the operator's diagnosis and treatment plan",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"accepted": map[string]any{
				"type":        "boolean",
				"description": "True only if the diagnosis matches and at least two appropriate treatment steps are proposed",
			},
			"patient_reply": map[string]any{
				"type":        "string",
				"description": "Natural in-character patient response to the plan",
			},
			"short_feedback": map[string]any{
				"type":        "string",
				"description": "Brief tactical analysis of the plan",
			},
			"score_accuracy":     scoreProperty("Correctness of diagnosis and plan"),
			"score_thoroughness": scoreProperty("Quality of history taking and differential"),
			"score_efficiency":   scoreProperty("100 minus 25 per hint and 10 per turn over 6"),
		},
		"required": []any{
			"accepted", "patient_reply", "short_feedback",
			"score_accuracy", "score_thoroughness", "score_efficiency",
		},
		"additionalProperties": false,
	},
}

func scoreProperty(desc string) map[string]any {
	return map[string]any{
		"type":        "integer",
		"minimum":     0,
		"maximum":     100,
		"description": desc,
	}
}
