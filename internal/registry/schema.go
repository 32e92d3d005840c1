package registry

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/skillpack-cli/skillpack/internal/types"
)

//go:embed data/skills-registry.schema.json
var schemaFS embed.FS

// decodeRegistry validates raw catalog bytes against the registry schema
// before unmarshalling. Registry payloads come off the network and are
// never trusted as-is.
func decodeRegistry(data []byte) (*types.SkillsRegistry, error) {
	if err := validateRegistryBytes(data); err != nil {
		return nil, err
	}

	var reg types.SkillsRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, &RegistryError{
			Type:    ErrorTypeSchema,
			Message: "failed to unmarshal registry",
			Err:     err,
		}
	}
	return &reg, nil
}

func validateRegistryBytes(data []byte) error {
	schemaBytes, err := schemaFS.ReadFile("data/skills-registry.schema.json")
	if err != nil {
		return fmt.Errorf("failed to read embedded schema: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return &RegistryError{
			Type:    ErrorTypeSchema,
			Message: "registry payload is not valid JSON",
			Err:     err,
		}
	}

	if !result.Valid() {
		var details []string
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return &RegistryError{
			Type:    ErrorTypeSchema,
			Message: fmt.Sprintf("registry schema validation failed: %s", strings.Join(details, "; ")),
		}
	}
	return nil
}
