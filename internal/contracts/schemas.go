package contracts

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/events/listing-changed/v1.json
var listingChangedV1 string

var compiledSchemas = make(map[string]*jsonschema.Schema)

func init() {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	schemaURL := "https://trojmiasto-monitor/schemas/events/listing-changed/v1.json"
	if err := compiler.AddResource(schemaURL, strings.NewReader(listingChangedV1)); err != nil {
		log.Fatalf("failed to add schema resource %s: %v", schemaURL, err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		log.Fatalf("failed to compile schema %s: %v", schemaURL, err)
	}

	compiledSchemas["ListingChangedEvent/1.0.0"] = schema
}

// ValidateEvent принимает тело сообщения и его метаданные и проверяет по схеме
func ValidateEvent(eventType, eventVersion string, body []byte) error {
	key := fmt.Sprintf("%s/%s", eventType, eventVersion)
	schema, ok := compiledSchemas[key]
	if !ok {
		return fmt.Errorf("schema for event '%s' version '%s' not found", eventType, eventVersion)
	}

	// распарсить JSON в универсальный тип interface{}
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		// Если это невалидный JSON, валидация по схеме невозможна
		return fmt.Errorf("message body is not a valid JSON: %w", err)
	}

	// валидировать уже распарсенные данные
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("JSON schema validation failed: %w", err)
	}

	return nil
}
