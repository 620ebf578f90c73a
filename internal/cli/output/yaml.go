package output

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter formats data as YAML.
type YAMLFormatter struct {
	// Direct encodes data with its yaml tags instead of its JSON form.
	// Durations then render as "30s" rather than nanoseconds.
	Direct bool
}

// Format formats data as YAML. Unless Direct is set, values go through
// their JSON form first so that json tags decide the field names.
func (f *YAMLFormatter) Format(w io.Writer, data any) error {
	if f.Direct {
		return encodeYAML(w, data)
	}
	raw, ok := data.(json.RawMessage)
	if !ok {
		var err error
		if raw, err = json.Marshal(data); err != nil {
			return err
		}
	}
	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return err
	}
	return encodeYAML(w, generic)
}

func encodeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
