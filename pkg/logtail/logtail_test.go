package logtail

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engine.log")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTail_SmallFile(t *testing.T) {
	path := writeLog(t, "line one\nline two\n")
	assert.Equal(t, "line one\nline two\n", Tail(path, 16000))
}

func TestTail_TruncatesToBudget(t *testing.T) {
	content := strings.Repeat("x", 500) + "END"
	path := writeLog(t, content)

	got := Tail(path, 100)
	assert.Len(t, got, 100)
	assert.True(t, strings.HasSuffix(got, "END"))
}

func TestTail_NeverExceedsBudget(t *testing.T) {
	path := writeLog(t, strings.Repeat("log line\n", 10000))

	for _, budget := range []int64{1, 100, DefaultMaxBytes} {
		got := Tail(path, budget)
		assert.LessOrEqual(t, int64(len(got)), budget)
	}
}

func TestTail_MissingFile(t *testing.T) {
	assert.Equal(t, "", Tail(filepath.Join(t.TempDir(), "absent.log"), 100))
}

func TestTail_ZeroBudgetUsesDefault(t *testing.T) {
	path := writeLog(t, "some output\n")
	assert.Equal(t, "some output\n", Tail(path, 0))
}

func TestTail_InvalidUTF8Replaced(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.log")
	require.NoError(t, os.WriteFile(path, []byte{'o', 'k', 0xff, 0xfe, '\n'}, 0o644))

	got := Tail(path, 100)
	assert.True(t, strings.HasPrefix(got, "ok"))
	assert.True(t, strings.Contains(got, "�"))
}
