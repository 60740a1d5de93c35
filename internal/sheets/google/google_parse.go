package google

import (
	"fmt"
	"strconv"
	"strings"

	"loadash/internal/core"
)

// parseValues converts a values matrix (as returned by the Sheets API) into a
// raw table. The first non-empty row is the header; trailing empty rows are
// dropped.
func parseValues(values [][]interface{}) core.RawTable {
	var t core.RawTable
	i := 0
	for ; i < len(values); i++ {
		if row := toStrings(values[i]); !allEmpty(row) {
			t.Header = row
			i++
			break
		}
	}
	for ; i < len(values); i++ {
		t.Rows = append(t.Rows, toStrings(values[i]))
	}
	for len(t.Rows) > 0 && allEmpty(t.Rows[len(t.Rows)-1]) {
		t.Rows = t.Rows[:len(t.Rows)-1]
	}
	return t
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch x := v.(type) {
		case nil:
			out[i] = ""
		case float64:
			out[i] = strconv.FormatFloat(x, 'f', -1, 64)
		case bool:
			out[i] = strconv.FormatBool(x)
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return out
}

func allEmpty(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
