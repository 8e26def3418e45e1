package main

import (
	"encoding/json"
	"fmt"

	"ferrite/generator"
	"ferrite/semantic"
	"ferrite/vm/scalar"
)

// witnessTemplate builds the JSON skeleton spec.md §6 calls the
// "Witness template: a JSON skeleton matching the entry's input type":
// one object field per declared parameter, each a zero-valued leaf or
// nested structure per generator.ValueTemplate.
func witnessTemplate(fn *semantic.FunctionInfo) map[string]any {
	obj := make(map[string]any, len(fn.Params))
	for _, p := range fn.Params {
		obj[p.Name] = generator.ValueTemplate(p.Type)
	}
	return obj
}

// publicDataTemplate builds the "Public-data template: JSON skeleton
// matching the entry's output type" (spec.md §6).
func publicDataTemplate(fn *semantic.FunctionInfo) any {
	return generator.ValueTemplate(fn.Return)
}

// parseWitness decodes a filled-in witnessTemplate document into fn's
// flattened argument scalars, in declared parameter order (the same
// order generator.Generate's InputSize expects).
func parseWitness(fn *semantic.FunctionInfo, raw []byte) ([]scalar.Value, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("witness: expected a JSON object: %w", err)
	}
	var out []scalar.Value
	for _, p := range fn.Params {
		fv, ok := obj[p.Name]
		if !ok {
			return nil, fmt.Errorf("witness: missing argument %q", p.Name)
		}
		vals, err := generator.ParseValues(p.Type, fv)
		if err != nil {
			return nil, fmt.Errorf("witness: argument %q: %w", p.Name, err)
		}
		out = append(out, vals...)
	}
	return out, nil
}
