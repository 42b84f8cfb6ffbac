package handler

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// pathID parses a positive integer path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// normalizeTimes accepts the bulk "times" field as a JSON array, a string
// holding a JSON array, or a comma-separated string.  Blank entries are
// dropped.
func normalizeTimes(raw json.RawMessage) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return compact(list)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	if err := json.Unmarshal([]byte(s), &list); err == nil {
		return compact(list)
	}
	return compact(strings.Split(s, ","))
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
