package swagger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestDocIsRegisteredAndValidJSON(t *testing.T) {
	doc, err := swag.ReadDoc()
	require.NoError(t, err)

	var parsed struct {
		Paths map[string]interface{} `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(doc), &parsed))
	for _, path := range []string{"/api/v1/reschedule", "/api/v1/appointments", "/api/v1/appointments/stream", "/api/v1/appointments/export", "/api/v1/grade-levels"} {
		assert.Contains(t, parsed.Paths, path)
	}
}
