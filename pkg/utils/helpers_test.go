package utils

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 90*time.Second, ParseDuration("90s", time.Minute))
	assert.Equal(t, time.Minute, ParseDuration("", time.Minute))
	assert.Equal(t, time.Minute, ParseDuration("soon", time.Minute))
}

func TestCleanTopicName(t *testing.T) {
	assert.Equal(t, "Task app forteams", CleanTopicName("Task app: for/teams?"))
	assert.Equal(t, "ab", CleanTopicName(`a\/:*?"<>|b`))
	assert.Equal(t, "家計簿アプリ", CleanTopicName(" 家計簿アプリ? "))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", FormatValue(nil))
	assert.Equal(t, "Todoist", FormatValue("Todoist"))
	assert.Equal(t, "4.5", FormatValue(json.Number("4.5")))
	assert.Equal(t, "true", FormatValue(true))
	assert.Equal(t, `["a","b"]`, FormatValue([]interface{}{"a", "b"}))
	assert.Equal(t, `{"k":1}`, FormatValue(map[string]interface{}{"k": 1}))
}

func TestOutputManager(t *testing.T) {
	om := NewOutputManager(t.TempDir())
	path, err := om.GetOutputFilePath("Task: app", "records", "csv")
	require.NoError(t, err)
	assert.Equal(t, "Task app_records.csv", filepath.Base(path))
	assert.DirExists(t, filepath.Dir(path))

	assert.Equal(t, "text/csv; charset=utf-8", ContentType("csv"))
}
