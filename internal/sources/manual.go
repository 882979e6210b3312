package sources

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Bessima/fieldops/internal/models"
	"github.com/xeipuuv/gojsonschema"
)

// manualEntrySchema описывает форму ручного ввода. Номер заказа не обязателен:
// записи без номера отбрасываются дедупликацией и учитываются отдельно.
const manualEntrySchema = `{
	"type": "object",
	"properties": {
		"data": {
			"type": "object",
			"properties": {
				"orderNo": {"type": ["string", "number"]},
				"status": {"type": "string"},
				"address": {"type": "string"},
				"technician": {"type": "string"},
				"notes": {"type": "string"}
			}
		},
		"orderNo": {"type": ["string", "number"]},
		"status": {"type": "string"},
		"timestamp": {"type": ["string", "number"]},
		"completionDetails": {"type": "object"},
		"searchResponse": {"type": "object"},
		"extracted": {"type": "object"}
	}
}`

var manualSchema = mustSchema(manualEntrySchema)

func mustSchema(source string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
	if err != nil {
		panic(fmt.Sprintf("invalid embedded schema: %v", err))
	}
	return schema
}

// FromDocuments decodes JSON order documents submitted through the API.
// Every document must be a JSON object matching the manual-entry shape.
func FromDocuments(source models.OrderSource, documents []json.RawMessage) ([]models.RawOrder, error) {
	orders := make([]models.RawOrder, 0, len(documents))
	for i, document := range documents {
		var doc map[string]any
		if err := json.Unmarshal(document, &doc); err != nil {
			return nil, fmt.Errorf("order %d is not a JSON object: %w", i, err)
		}
		if doc == nil {
			return nil, fmt.Errorf("order %d is not a JSON object", i)
		}
		if err := validate(doc); err != nil {
			return nil, fmt.Errorf("order %d: %w", i, err)
		}
		orders = append(orders, models.RawOrder{Source: source, Doc: doc})
	}
	return orders, nil
}

func validate(doc map[string]any) error {
	result, err := manualSchema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	errs := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		errs[i] = desc.String()
	}
	return fmt.Errorf("invalid order document: %s", strings.Join(errs, "; "))
}

// FromRouteDocuments wraps documents returned by the routing provider.
func FromRouteDocuments(documents []map[string]any) []models.RawOrder {
	orders := make([]models.RawOrder, 0, len(documents))
	for _, doc := range documents {
		orders = append(orders, models.RawOrder{Source: models.APISource, Doc: doc})
	}
	return orders
}

// ParseSource returns the source named in an import request; manual by default.
func ParseSource(name string) (models.OrderSource, error) {
	switch models.OrderSource(strings.ToLower(strings.TrimSpace(name))) {
	case "", models.ManualSource:
		return models.ManualSource, nil
	case models.APISource:
		return models.APISource, nil
	case models.SpreadsheetSource:
		return models.SpreadsheetSource, nil
	default:
		return "", fmt.Errorf("unknown order source %q", name)
	}
}
