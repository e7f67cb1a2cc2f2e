package pipeline

import "github.com/sells-group/prospect-cli/internal/ai"

// Structured reply shapes, one per stage. Optional strings accept null
// because models emit it for unknown values.

var discoverySchema = ai.MustSchema("discovery", `{
  "type": "object",
  "properties": {
    "leads": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": "string"},
          "address": {"type": ["string", "null"]},
          "rating": {"type": ["number", "null"], "minimum": 0, "maximum": 5},
          "website": {"type": ["string", "null"]},
          "phone": {"type": ["string", "null"]},
          "businessType": {"type": ["string", "null"]},
          "notes": {"type": ["string", "null"], "description": "One-sentence summary of why this business is a prospect."}
        }
      }
    }
  },
  "required": ["leads"]
}`)

var auditSchema = ai.MustSchema("audit", `{
  "type": "object",
  "properties": {
    "seoScore": {"type": "integer", "minimum": 0, "maximum": 100},
    "designScore": {"type": "integer", "minimum": 0, "maximum": 100},
    "mobileScore": {"type": "integer", "minimum": 0, "maximum": 100},
    "criticalIssues": {"type": "array", "items": {"type": "string"}},
    "positivePoints": {"type": "array", "items": {"type": "string"}},
    "summary": {"type": "string"}
  },
  "required": ["seoScore", "designScore", "mobileScore", "summary"]
}`)

var analysisSchema = ai.MustSchema("analysis", `{
  "type": "object",
  "properties": {
    "leadScore": {"type": "integer", "minimum": 0, "maximum": 100},
    "fitReasoning": {"type": "string", "description": "A short paragraph explaining why I should contact them."},
    "keyPainPoints": {"type": "array", "items": {"type": "string"}},
    "techStack": {"type": "array", "items": {"type": "string"}},
    "verificationStatus": {"type": "string", "enum": ["Verified Active", "Uncertain", "Likely Closed"]},
    "decisionMaker": {"type": ["string", "null"]},
    "contactEmail": {"type": ["string", "null"], "description": "The discovered email address or empty string."}
  },
  "required": ["leadScore", "fitReasoning", "verificationStatus"]
}`)
