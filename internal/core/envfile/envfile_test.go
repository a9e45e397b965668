package envfile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Parse Tests
// =============================================================================

func TestParse_Basic(t *testing.T) {
	vars, err := Parse(strings.NewReader(`
POSTGRES_DB=app
POSTGRES_USER=app_user
POSTGRES_PASSWORD=secret
`))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"POSTGRES_DB":       "app",
		"POSTGRES_USER":     "app_user",
		"POSTGRES_PASSWORD": "secret",
	}, vars)
}

func TestParse_CommentsAndBlanks(t *testing.T) {
	vars, err := Parse(strings.NewReader(`
# database credentials
POSTGRES_DB=app

# empty value is fine
DEBUG=
`))
	require.NoError(t, err)
	assert.Equal(t, "app", vars["POSTGRES_DB"])
	assert.Equal(t, "", vars["DEBUG"])
	assert.Len(t, vars, 2)
}

func TestParse_QuotedValues(t *testing.T) {
	vars, err := Parse(strings.NewReader(`
SECRET_KEY="django-insecure key with spaces"
SINGLE='quoted'
`))
	require.NoError(t, err)
	assert.Equal(t, "django-insecure key with spaces", vars["SECRET_KEY"])
	assert.Equal(t, "quoted", vars["SINGLE"])
}

func TestParse_ExportPrefix(t *testing.T) {
	vars, err := Parse(strings.NewReader("export DB_HOST=db\n"))
	require.NoError(t, err)
	assert.Equal(t, "db", vars["DB_HOST"])
}

func TestParse_ValueContainsEquals(t *testing.T) {
	vars, err := Parse(strings.NewReader("DSN=postgres://u:p@db:5432/app?sslmode=disable\n"))
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db:5432/app?sslmode=disable", vars["DSN"])
}

func TestParse_MalformedLine(t *testing.T) {
	_, err := Parse(strings.NewReader("NOT A PAIR\n"))
	assert.ErrorIs(t, err, ErrMalformedLine)
}

func TestParse_InvalidKey(t *testing.T) {
	_, err := Parse(strings.NewReader("9KEY=value\n"))
	assert.ErrorIs(t, err, ErrMalformedLine)
}

// =============================================================================
// Substitute Tests
// =============================================================================

func TestSubstitute(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		vars     map[string]string
		expected string
	}{
		{
			name:     "simple variable",
			value:    "${DB_HOST}",
			vars:     map[string]string{"DB_HOST": "db"},
			expected: "db",
		},
		{
			name:     "default used when missing",
			value:    "${PORT:-8080}",
			vars:     map[string]string{},
			expected: "8080",
		},
		{
			name:     "default ignored when set",
			value:    "${PORT:-8080}",
			vars:     map[string]string{"PORT": "9001"},
			expected: "9001",
		},
		{
			name:     "missing without default kept as-is",
			value:    "${MISSING}",
			vars:     map[string]string{},
			expected: "${MISSING}",
		},
		{
			name:     "empty default",
			value:    "${MISSING:-}",
			vars:     map[string]string{},
			expected: "",
		},
		{
			name:     "multiple placeholders",
			value:    "postgres://${HOST}:${PORT}",
			vars:     map[string]string{"HOST": "db", "PORT": "5432"},
			expected: "postgres://db:5432",
		},
		{
			name:     "nil map",
			value:    "${X:-y}",
			vars:     nil,
			expected: "y",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Substitute(tt.value, tt.vars))
		})
	}
}

// =============================================================================
// Placeholders Tests
// =============================================================================

func TestPlaceholders(t *testing.T) {
	content := `
services:
  db:
    image: postgres:13.10
    environment:
      POSTGRES_PASSWORD: ${DB_PASSWORD}
      POSTGRES_USER: ${DB_USER:-app}
      PGDATA: ${DB_PASSWORD}
`
	assert.Equal(t, []string{"DB_PASSWORD", "DB_USER"}, Placeholders(content))
}

func TestPlaceholders_None(t *testing.T) {
	assert.Empty(t, Placeholders("services:\n  app:\n    image: nginx\n"))
}
