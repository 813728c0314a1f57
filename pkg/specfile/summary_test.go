package specfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSpec = `openapi: 3.0.0
info:
  title: Pet Store
  version: 1.2.3
  description: A sample API
paths:
  /pets:
    get:
      summary: List pets
      responses:
        "200":
          description: ok
    post:
      summary: Create a pet
      responses:
        "201":
          description: created
  /pets/{id}:
    get:
      summary: Get a pet
      parameters:
        - name: id
          in: path
          required: true
          schema:
            type: string
      responses:
        "200":
          description: ok
`

func writeSpec(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSummarize(t *testing.T) {
	path := writeSpec(t, "petstore.yaml", sampleSpec)

	s := Summarize(path)
	assert.Equal(t, "Pet Store", s.Title)
	assert.Equal(t, "1.2.3", s.Version)
	assert.Equal(t, "A sample API", s.Description)

	require.Len(t, s.Endpoints, 3)
	assert.Equal(t, Endpoint{Method: "GET", Path: "/pets", Summary: "List pets"}, s.Endpoints[0])
	assert.Equal(t, Endpoint{Method: "POST", Path: "/pets", Summary: "Create a pet"}, s.Endpoints[1])
	assert.Equal(t, Endpoint{Method: "GET", Path: "/pets/{id}", Summary: "Get a pet"}, s.Endpoints[2])
}

func TestSummarize_MalformedSpec(t *testing.T) {
	path := writeSpec(t, "broken.yaml", ":\n  - not a spec\n\tbad indent")

	s := Summarize(path)
	assert.Empty(t, s.Title)
	assert.NotNil(t, s.Endpoints)
	assert.Empty(t, s.Endpoints)
}

func TestSummarize_MissingFile(t *testing.T) {
	s := Summarize(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Empty(t, s.Title)
	assert.Empty(t, s.Endpoints)
}
