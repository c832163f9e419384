// internal/common/validation/schema_test.go
package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDocument(t *testing.T) {
	schema := map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"name"},
		"properties": map[string]interface{}{
			"name": map[string]interface{}{"type": "string"},
			"age":  map[string]interface{}{"type": "integer"},
		},
	}

	result, err := ValidateDocument(map[string]interface{}{"name": "Jane", "age": 30}, schema)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)

	result, err = ValidateDocument(map[string]interface{}{"age": "thirty"}, schema)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.True(t, result.HasErrors("age"))
	assert.NotEmpty(t, result.GetErrorMessages())
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("jane@example.com"))
	assert.True(t, ValidateEmail("first.last+tag@sub.example.co"))
	assert.False(t, ValidateEmail("not-an-email"))
	assert.False(t, ValidateEmail("missing@tld"))
}

func TestValidatePhone(t *testing.T) {
	assert.True(t, ValidatePhone("+15550001111"))
	assert.True(t, ValidatePhone("(555) 000-1111"))
	assert.False(t, ValidatePhone("12345"))
}

func TestValidateURL(t *testing.T) {
	assert.True(t, ValidateURL("https://generativelanguage.googleapis.com"))
	assert.True(t, ValidateURL("http://localhost:8080/realms/app"))
	assert.False(t, ValidateURL("keycloak.internal"))
}
