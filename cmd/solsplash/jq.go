package main

import (
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"
)

// jqFilters is a set of compiled filters that must all be truthy.
type jqFilters []*gojq.Code

func compileJQFilters(exprs []string) (jqFilters, error) {
	filters := make(jqFilters, len(exprs))
	for i, filter := range exprs {
		query, err := gojq.Parse(filter)
		if err != nil {
			return nil, fmt.Errorf("failed to parse jq filter %q: %w", filter, err)
		}
		filters[i], err = gojq.Compile(query)
		if err != nil {
			return nil, fmt.Errorf("failed to compile jq filter %q: %w", filter, err)
		}
	}
	return filters, nil
}

// match runs every filter against the JSON form of v.
func (f jqFilters) match(v interface{}) (bool, error) {
	if len(f) == 0 {
		return true, nil
	}

	// gojq only accepts plain JSON values
	data, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("failed to marshal value: %w", err)
	}
	var input interface{}
	if err := json.Unmarshal(data, &input); err != nil {
		return false, fmt.Errorf("failed to unmarshal value: %w", err)
	}

	for _, code := range f {
		iter := code.Run(input)
		v, ok := iter.Next()
		if !ok {
			// No result means filter failed
			return false, nil
		}
		if err, isErr := v.(error); isErr {
			return false, fmt.Errorf("jq filter error: %w", err)
		}
		if !isTruthy(v) {
			return false, nil
		}
	}
	return true, nil
}

// isTruthy checks if a jq result value is truthy.
// In jq, false and null are falsy, everything else is truthy.
func isTruthy(v interface{}) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	// Everything else (numbers, strings, objects, arrays) is truthy
	return true
}
