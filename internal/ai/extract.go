package ai

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/model"
)

// Extract asks gen for a reply conforming to schema and decodes it into T.
// On backend, parse or validation failure it returns def together with the
// error; it never panics. The schema is appended to the last user turn.
func Extract[T any](ctx context.Context, gen Generator, req Request, schema *Schema, def T) (T, error) {
	req.Turns = withSchemaInstruction(req.Turns, schema)

	resp, err := gen.Generate(ctx, req)
	if err != nil {
		return def, eris.Wrapf(err, "ai: extract %s", schema.Name())
	}

	out, err := Decode[T](resp.Text, schema)
	if err != nil {
		zap.L().Warn("structured reply rejected",
			zap.String("stage", req.Stage),
			zap.String("schema", schema.Name()),
			zap.Error(err),
		)
		return def, err
	}
	return out, nil
}

// Decode parses a model reply into T after stripping fences, repairing
// malformed JSON and validating against schema. Replies must be JSON objects.
func Decode[T any](text string, schema *Schema) (T, error) {
	var zero T

	cleaned := cleanJSON(text)
	if cleaned == "" {
		return zero, eris.Errorf("ai: %s reply is empty", schema.Name())
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		repaired, rerr := jsonrepair.JSONRepair(cleaned)
		if rerr != nil {
			return zero, eris.Wrapf(err, "ai: parse %s reply", schema.Name())
		}
		if err := json.Unmarshal([]byte(repaired), &data); err != nil {
			return zero, eris.Wrapf(err, "ai: parse repaired %s reply", schema.Name())
		}
		cleaned = repaired
	}

	if data == nil {
		return zero, eris.Errorf("ai: %s reply is not a JSON object", schema.Name())
	}
	if err := schema.Validate(data); err != nil {
		return zero, err
	}

	var out T
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return zero, eris.Wrapf(err, "ai: decode %s reply", schema.Name())
	}
	return out, nil
}

func withSchemaInstruction(turns []Turn, schema *Schema) []Turn {
	instruction := "Respond with a single JSON value and nothing else.\n\nOutput JSON schema:\n" + schema.String()

	out := make([]Turn, len(turns), len(turns)+1)
	copy(out, turns)
	if n := len(out); n > 0 && out[n-1].Role == model.RoleUser {
		out[n-1].Text = strings.TrimRight(out[n-1].Text, "\n") + "\n\n" + instruction
		return out
	}
	return append(out, UserTurn(instruction))
}

// cleanJSON strips markdown code fences and surrounding prose from a model
// reply, keeping the outermost JSON object or array.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	// Strip markdown code fences.
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return strings.TrimSpace(text)
	}
	closer := "}"
	if text[start] == '[' {
		closer = "]"
	}
	if end := strings.LastIndex(text, closer); end > start {
		text = text[start : end+1]
	} else {
		text = text[start:]
	}

	return strings.TrimSpace(text)
}
