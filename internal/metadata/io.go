package metadata

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/imgajeed76/metatable/internal/util"
)

// DecodeYAML reads records to import. The document is either a sequence of
// records or a single record mapping. Text that is not valid UTF-8 is read
// as Latin-1.
func DecodeYAML(r io.Reader) ([]Input, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = util.ToValidUTF8Bytes(data)

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		var in []Input
		if err := root.Decode(&in); err != nil {
			return nil, fmt.Errorf("decode records: %w", err)
		}
		return in, nil
	case yaml.MappingNode:
		var in Input
		if err := root.Decode(&in); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		return []Input{in}, nil
	default:
		return nil, fmt.Errorf("line %d: expected a list of records", root.Line)
	}
}

// EncodeYAML writes records as a YAML sequence.
func EncodeYAML(w io.Writer, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return err
	}
	return enc.Close()
}
