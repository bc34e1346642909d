package extraction

import "job-offer-pipeline/internal/common/validation"

func anyOf(types ...string) map[string]interface{} {
	list := make([]interface{}, len(types))
	for i, t := range types {
		list[i] = t
	}
	return map[string]interface{}{"type": list}
}

// responseValidator accepts both the nested and the flat response shapes.
var responseValidator = validation.MustCompile(map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"fingerprint":           anyOf("string", "null"),
		"embedding":             map[string]interface{}{"type": []interface{}{"array", "null"}, "items": map[string]interface{}{"type": "number"}},
		"rawText":               anyOf("string", "null"),
		"raw_text":              anyOf("string", "null"),
		"language":              anyOf("string", "null"),
		"jobTitle":              anyOf("object", "string", "null"),
		"job_title":             anyOf("object", "string", "null"),
		"company":               anyOf("object", "string", "null"),
		"location":              anyOf("object", "array", "string", "null"),
		"contractType":          anyOf("array", "string", "null"),
		"contract_type":         anyOf("array", "string", "null"),
		"type":                  anyOf("string", "null"),
		"salary":                anyOf("array", "string", "null"),
		"duration":              anyOf("array", "string", "null"),
		"deadline":              anyOf("array", "string", "null"),
		"contacts":              anyOf("object", "null"),
		"skills":                anyOf("array", "null"),
		"inferredDomain":        anyOf("string", "null"),
		"inferred_domain":       anyOf("string", "null"),
		"domain":                anyOf("string", "null"),
		"metadata":              anyOf("object", "null"),
		"extraction_confidence": anyOf("number", "null"),
	},
})
