package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// DiscoverSchema is the minimal shape required of a /discover/movie
// response. Per-movie fields beyond the id are checked record by record so
// a single bad entry does not reject the whole page.
var DiscoverSchema = `{
	"type": "object",
	"properties": {
		"page": {"type": "integer"},
		"results": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"id": {"type": "integer"},
					"title": {"type": ["string", "null"]},
					"release_date": {"type": ["string", "null"]},
					"vote_average": {"type": ["number", "null"]}
				},
				"required": ["id"]
			}
		}
	},
	"required": ["results"]
}`

// GenreListSchema is the shape of a /genre/movie/list response.
var GenreListSchema = `{
	"type": "object",
	"properties": {
		"genres": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"id": {"type": "integer", "minimum": 1},
					"name": {"type": "string", "minLength": 1}
				},
				"required": ["id", "name"]
			}
		}
	},
	"required": ["genres"]
}`

var (
	discoverSchema  = mustSchema(DiscoverSchema)
	genreListSchema = mustSchema(GenreListSchema)
)

func mustSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("invalid built-in schema: %v", err))
	}
	return schema
}

// ValidateDiscoverResponse validates a discover payload against DiscoverSchema.
func ValidateDiscoverResponse(jsonData []byte) error {
	return validateAgainst(discoverSchema, jsonData)
}

// ValidateGenreListResponse validates a genre list payload against GenreListSchema.
func ValidateGenreListResponse(jsonData []byte) error {
	return validateAgainst(genreListSchema, jsonData)
}

func validateAgainst(schema *gojsonschema.Schema, jsonData []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to validate JSON schema: %w", err)
	}

	if !result.Valid() {
		var errorMessages []string
		for _, desc := range result.Errors() {
			errorMessages = append(errorMessages, desc.String())
		}
		return fmt.Errorf("JSON validation failed: %s", strings.Join(errorMessages, "; "))
	}

	return nil
}
