package workflow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"supervisor/internal/jsonx"
)

// ParseEditOutput turns the edit model's raw output into {filename → new
// content}. The prompt asks for "### filename" blocks; some models answer
// with a JSON object instead, which is accepted after repair.
func ParseEditOutput(raw string) (targets []string, files map[string]string, err error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil, fmt.Errorf("empty edit output")
	}

	if strings.HasPrefix(trimmed, "{") {
		files, err = parseJSONEdit(trimmed)
	} else {
		files = parseBlockEdit(trimmed)
	}
	if err != nil {
		return nil, nil, err
	}
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("no files found in edit output")
	}

	targets = make([]string, 0, len(files))
	for name := range files {
		targets = append(targets, name)
	}
	sort.Strings(targets)
	return targets, files, nil
}

func parseBlockEdit(raw string) map[string]string {
	files := make(map[string]string)
	var current string
	var buf []string

	flush := func() {
		if current != "" && len(buf) > 0 {
			files[current] = strings.TrimSpace(strings.Join(buf, "\n"))
		}
		buf = nil
	}

	for _, line := range strings.Split(raw, "\n") {
		if strings.HasPrefix(line, "### ") {
			flush()
			current = strings.TrimSpace(strings.TrimPrefix(line, "### "))
			continue
		}
		buf = append(buf, line)
	}
	flush()
	return files
}

func parseJSONEdit(raw string) (map[string]string, error) {
	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return nil, fmt.Errorf("repair edit JSON: %w", err)
	}
	var files map[string]string
	if err := jsonx.Unmarshal([]byte(repaired), &files); err != nil {
		return nil, fmt.Errorf("decode edit JSON: %w", err)
	}
	return files, nil
}
