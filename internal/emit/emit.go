// Package emit serializes a command schema to JSON.
package emit

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/phobologic/cmdschema/internal/model"
)

// JSON encodes s in file order. Pretty output is indented by two spaces.
// The result always ends with a newline.
func JSON(s *model.Schema, pretty bool) ([]byte, error) {
	compact, err := s.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encoding schema: %w", err)
	}
	if !pretty {
		return append(compact, '\n'), nil
	}
	var b bytes.Buffer
	if err := json.Indent(&b, compact, "", "  "); err != nil {
		return nil, fmt.Errorf("indenting schema: %w", err)
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}
