package clients

import (
	"context"
	"encoding/json"
	"fmt"

	"mynahbackend/core"
)

// Generate runs a structured generation and decodes the result into T
func Generate[T any](ctx context.Context, generator StructuredGenerator, schema Schema, prompt Prompt) (T, error) {
	var result T

	raw, err := generator.GenerateStructured(ctx, schema, prompt)
	if err != nil {
		if core.IsModelError(err) {
			return result, err
		}
		return result, core.NewModelError(schema.Name, err)
	}

	if err := json.Unmarshal(raw, &result); err != nil {
		return result, core.NewModelError(schema.Name, fmt.Errorf("failed to decode %s output: %w", schema.Name, err))
	}
	return result, nil
}
