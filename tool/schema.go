package tool

import (
	"fmt"
	"reflect"
	"time"

	"github.com/viant/mcp-protocol/schema"
	"github.com/viant/tagly/format"
)

// InputSchemaFor builds an MCP tool input schema from a struct type; json tags
// drive property names, pointer and omitempty fields are optional.
func InputSchemaFor(v any) (schema.ToolInputSchema, error) {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return schema.ToolInputSchema{}, fmt.Errorf("expected a struct type, got %s", t.Kind())
	}
	properties, required := structToProperties(t)
	return schema.ToolInputSchema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}, nil
}

// schemaForType returns a JSON schema representation for a given reflect.Type.
// The inSlice flag suppresses nullable markers on slice elements.
func schemaForType(t reflect.Type, inSlice bool) map[string]interface{} {
	result := make(map[string]interface{})

	// time.Time maps to an ISO 8601 string
	if t == reflect.TypeOf(time.Time{}) {
		result["type"] = "string"
		result["format"] = "date-time"
		return result
	}

	if t.Kind() == reflect.Ptr {
		result = schemaForType(t.Elem(), inSlice)
		if !inSlice {
			result["nullable"] = true
		}
		return result
	}

	switch t.Kind() {
	case reflect.Bool:
		result["type"] = "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		result["type"] = "integer"
	case reflect.Float32, reflect.Float64:
		result["type"] = "number"
	case reflect.String:
		result["type"] = "string"
	case reflect.Slice, reflect.Array:
		result["type"] = "array"
		result["items"] = schemaForType(t.Elem(), true)
	case reflect.Map:
		result["type"] = "object"
		result["additionalProperties"] = schemaForType(t.Elem(), false)
	case reflect.Struct:
		result["type"] = "object"
		properties, required := structToProperties(t)
		result["properties"] = properties
		if len(required) > 0 {
			result["required"] = required
		}
	default:
		result["type"] = "string"
	}
	return result
}

// structToProperties converts a struct type into input schema properties and required fields.
func structToProperties(t reflect.Type) (schema.ToolInputSchemaProperties, []string) {
	properties := make(schema.ToolInputSchemaProperties)
	var required []string

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		tag, _ := format.Parse(field.Tag, "json", "format")
		if tag == nil {
			tag = &format.Tag{}
		}
		if tag.Ignore {
			continue
		}
		fieldName := field.Name
		if tag.Name != "" {
			fieldName = tag.Name
		}
		fieldSchema := schemaForType(field.Type, false)
		if tag.DateFormat != "" {
			fieldSchema["format"] = tag.DateFormat
		}
		if description := field.Tag.Get("description"); description != "" {
			fieldSchema["description"] = description
		}
		properties[fieldName] = fieldSchema
		if field.Type.Kind() != reflect.Ptr && !tag.Omitempty {
			required = append(required, fieldName)
		}
	}
	return properties, required
}
