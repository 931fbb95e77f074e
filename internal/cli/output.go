package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/samvad-hq/chroma-client/pkg/chroma"
)

const (
	outputJSON = "json"
	outputYAML = "yaml"
)

// collectionView is the printable form of a collection.
type collectionView struct {
	Name     string         `json:"name" yaml:"name"`
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

func viewOf(col *chroma.Collection) collectionView {
	return collectionView{Name: col.Name, Metadata: col.Metadata}
}

// print writes v to stdout in the selected output format.
func (rt *runtime) print(v any) error {
	switch strings.ToLower(rt.opts.output) {
	case "", outputJSON:
		enc := json.NewEncoder(rt.env.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML, "yml":
		enc := yaml.NewEncoder(rt.env.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedOutput, rt.opts.output)
	}
}

// parseObject decodes a JSON object flag such as --where '{"lang":"en"}'.
func parseObject(flag, raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("%w: --%s must be a JSON object: %v", ErrInvalidFlag, flag, err)
	}
	return out, nil
}

// parseVector decodes a comma separated list of floats such as "0.1,0.2,0.3".
func parseVector(raw string) ([]float64, error) {
	parts := strings.Split(raw, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: embedding component %q: %v", ErrInvalidFlag, p, err)
		}
		out = append(out, f)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: empty embedding", ErrInvalidFlag)
	}
	return out, nil
}
