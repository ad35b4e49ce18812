// Package configuration validates and canonicalises the opaque per-account
// configuration blob. The account core never looks inside it; this package
// only guarantees the stored value is a well-formed JSON object.
package configuration

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Empty is the configuration of a freshly created account.
var Empty = []byte("{}")

// MaxSize caps a configuration blob in bytes.
const MaxSize = 64 << 10

// Serializer turns client-supplied configuration into its stored form.
type Serializer struct{}

// Normalize validates blob and returns its canonical encoding: compact JSON
// with object keys sorted. An empty or null blob yields Empty. Applying
// Normalize to its own output returns the same bytes.
//
// Validation goes through protojson into a structpb.Struct, which rejects
// non-object roots and duplicate keys that encoding/json would accept. The
// Struct is only a check: numbers in it are float64, so the stored form is
// re-encoded from the original bytes with numbers kept verbatim and no HTML
// escaping.
func (Serializer) Normalize(blob []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(blob)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return append([]byte(nil), Empty...), nil
	}
	if len(trimmed) > MaxSize {
		return nil, fmt.Errorf("%w: configuration exceeds %d bytes", common.ErrorValidation, MaxSize)
	}

	if err := protojson.Unmarshal(trimmed, &structpb.Struct{}); err != nil {
		return nil, fmt.Errorf("%w: configuration must be a JSON object: %v", common.ErrorValidation, err)
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v map[string]any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: configuration must be a JSON object: %v", common.ErrorValidation, err)
	}

	var out bytes.Buffer
	enc := json.NewEncoder(&out)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode configuration: %w", err)
	}
	return bytes.TrimSuffix(out.Bytes(), []byte("\n")), nil
}
