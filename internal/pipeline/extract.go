package pipeline

import (
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"strings"

	"go-research-pipeline/internal/model"
)

var (
	fencedJSON    = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	bracketedList = regexp.MustCompile(`(?s)\[\s*\{.*\}\s*\]`)
)

// Extract looks for an embedded list of records in model output. A ```json
// fenced block wins over a bare [{...}] list; only the first pattern that
// matches is parsed. It reports false for no match, malformed JSON, elements
// that are not objects, and empty lists.
func Extract(text string) ([]model.ExtractedRecord, bool) {
	var payload string
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		payload = m[1]
	} else if m := bracketedList.FindString(text); m != "" {
		payload = m
	} else {
		return nil, false
	}

	records, err := parseRecords(payload)
	if err != nil || len(records) == 0 {
		return nil, false
	}
	return records, true
}

func parseRecords(payload string) ([]model.ExtractedRecord, error) {
	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after JSON value")
	}

	switch data := v.(type) {
	case map[string]interface{}:
		return []model.ExtractedRecord{data}, nil
	case []interface{}:
		out := make([]model.ExtractedRecord, 0, len(data))
		for _, item := range data {
			obj, ok := item.(map[string]interface{})
			if !ok {
				return nil, errors.New("list element is not an object")
			}
			out = append(out, obj)
		}
		return out, nil
	}
	return nil, errors.New("JSON value is neither an object nor a list")
}

// RecordsText renders records as an indented JSON array that Extract accepts.
func RecordsText(records []model.ExtractedRecord) string {
	if records == nil {
		records = []model.ExtractedRecord{}
	}
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(b)
}
