package handlers

import (
	"encoding/json"
	"fmt"

	"sigs.k8s.io/yaml"
)

// Output formats accepted by -o.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// ValidateOutput rejects unknown -o values.
func ValidateOutput(format string) error {
	switch format {
	case "", OutputTable, OutputJSON, OutputYAML:
		return nil
	}
	return fmt.Errorf("unsupported output format %q (use table, json or yaml)", format)
}

// writeStructured prints v as JSON or YAML. It reports false for the table
// format so the caller renders its own view.
func writeStructured(format string, v any) (bool, error) {
	switch format {
	case OutputJSON:
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return true, fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, _ = fmt.Fprintln(stdout, string(b))
		return true, nil
	case OutputYAML:
		b, err := yaml.Marshal(v)
		if err != nil {
			return true, fmt.Errorf("failed to marshal YAML: %w", err)
		}
		_, _ = fmt.Fprint(stdout, string(b))
		return true, nil
	}
	return false, nil
}
