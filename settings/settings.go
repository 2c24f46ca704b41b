// Package settings holds the credentials and index coordinates the
// processing backend needs, and the contract for persisting them.
package settings

import "fmt"

// DefaultNamespace is the Pinecone namespace used when none is configured
const DefaultNamespace = "book"

// Field names a Settings attribute. The values double as JSON keys and
// SQLite setting keys.
type Field string

const (
	FieldOpenAIAPIKey      Field = "openai_api_key"
	FieldPineconeAPIKey    Field = "pinecone_api_key"
	FieldPineconeIndexHost Field = "pinecone_index_host"
	FieldPineconeNamespace Field = "pinecone_namespace"
)

// Fields lists every field in display order
var Fields = []Field{
	FieldOpenAIAPIKey,
	FieldPineconeAPIKey,
	FieldPineconeIndexHost,
	FieldPineconeNamespace,
}

// Settings is replaced as a whole on every load and save; unset values
// are empty strings.
type Settings struct {
	OpenAIAPIKey      string `json:"openai_api_key"`
	PineconeAPIKey    string `json:"pinecone_api_key"`
	PineconeIndexHost string `json:"pinecone_index_host"`
	PineconeNamespace string `json:"pinecone_namespace"`
}

// Default returns the record used when nothing has been saved yet
func Default() Settings {
	return Settings{PineconeNamespace: DefaultNamespace}
}

// Get returns the value of a field
func (s Settings) Get(f Field) string {
	switch f {
	case FieldOpenAIAPIKey:
		return s.OpenAIAPIKey
	case FieldPineconeAPIKey:
		return s.PineconeAPIKey
	case FieldPineconeIndexHost:
		return s.PineconeIndexHost
	case FieldPineconeNamespace:
		return s.PineconeNamespace
	}
	return ""
}

// With returns a copy with one field changed
func (s Settings) With(f Field, value string) (Settings, error) {
	switch f {
	case FieldOpenAIAPIKey:
		s.OpenAIAPIKey = value
	case FieldPineconeAPIKey:
		s.PineconeAPIKey = value
	case FieldPineconeIndexHost:
		s.PineconeIndexHost = value
	case FieldPineconeNamespace:
		s.PineconeNamespace = value
	default:
		return s, fmt.Errorf("unknown settings field: %q", f)
	}
	return s, nil
}

// Values flattens the record into key/value pairs
func (s Settings) Values() map[string]string {
	values := make(map[string]string, len(Fields))
	for _, f := range Fields {
		values[string(f)] = s.Get(f)
	}
	return values
}

// FromValues builds a record from key/value pairs; missing keys keep
// their default value.
func FromValues(values map[string]string) Settings {
	s := Default()
	for _, f := range Fields {
		if v, ok := values[string(f)]; ok {
			s, _ = s.With(f, v)
		}
	}
	return s
}
