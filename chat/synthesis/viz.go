package synthesis

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/adsight/adsight/chat/state"
)

// maxTableRows caps materialized tables; the full data stays in the results.
const maxTableRows = 10

// tableFromResults builds a table from the first result containing an array
// of records. Column order is id, name, date first, then the rest sorted.
func tableFromResults(results []state.OperationResult) ([]string, [][]string) {
	for _, r := range results {
		if !r.Success {
			continue
		}
		records := recordsFrom(r.Data)
		if len(records) == 0 {
			continue
		}

		columns := columnOrder(records)
		rows := make([][]string, 0, maxTableRows)
		for _, rec := range records {
			if len(rows) == maxTableRows {
				break
			}
			row := make([]string, len(columns))
			for i, col := range columns {
				row[i] = cellString(rec[col])
			}
			rows = append(rows, row)
		}
		return columns, rows
	}
	return nil, nil
}

// seriesFromResults builds chart labels and datasets from the first result
// with a date-keyed series: labels are the dates, one dataset per numeric
// field.
func seriesFromResults(results []state.OperationResult) ([]string, []state.Dataset) {
	for _, r := range results {
		if !r.Success {
			continue
		}
		records := recordsFrom(r.Data)
		if len(records) == 0 {
			continue
		}

		dateKey := ""
		for _, key := range []string{"date", "day", "period"} {
			if _, ok := records[0][key].(string); ok {
				dateKey = key
				break
			}
		}
		if dateKey == "" {
			continue
		}

		var numericKeys []string
		for key, v := range records[0] {
			if _, ok := v.(float64); ok {
				numericKeys = append(numericKeys, key)
			}
		}
		if len(numericKeys) == 0 {
			continue
		}
		sort.Strings(numericKeys)

		labels := make([]string, 0, len(records))
		series := make(map[string][]float64, len(numericKeys))
		for _, rec := range records {
			label, _ := rec[dateKey].(string)
			labels = append(labels, label)
			for _, key := range numericKeys {
				v, _ := rec[key].(float64)
				series[key] = append(series[key], v)
			}
		}

		datasets := make([]state.Dataset, 0, len(numericKeys))
		for _, key := range numericKeys {
			datasets = append(datasets, state.Dataset{Label: key, Data: series[key]})
		}
		return labels, datasets
	}
	return nil, nil
}

// recordsFrom accepts a bare array of objects or an object wrapping one
// array field, the same shapes listing endpoints return.
func recordsFrom(raw json.RawMessage) []map[string]any {
	if len(raw) == 0 {
		return nil
	}

	var records []map[string]any
	if err := json.Unmarshal(raw, &records); err == nil {
		return records
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil
	}
	keys := make([]string, 0, len(wrapper))
	for k := range wrapper {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := json.Unmarshal(wrapper[k], &records); err == nil && len(records) > 0 {
			return records
		}
	}
	return nil
}

func columnOrder(records []map[string]any) []string {
	preferred := []string{"id", "name", "date"}
	seen := make(map[string]bool)
	var columns []string
	for _, p := range preferred {
		if _, ok := records[0][p]; ok {
			columns = append(columns, p)
			seen[p] = true
		}
	}
	var rest []string
	for key := range records[0] {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	return append(columns, rest...)
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		raw, _ := json.Marshal(t)
		return string(raw)
	}
}
