package canonical

import (
	"bytes"
	"encoding/json"

	"github.com/signia-dev/signia-core/signiaerr"
)

// Parse decodes canonical bytes back into a Value tree. It is the inverse
// of Encode used by the canonical-idempotence property:
// Encode(Parse(Encode(v))) == Encode(v). A number whose literal text parses
// as an int64 decodes to int64; any other number (a fraction, an exponent,
// or an integer outside int64, and also "1.0") is kept verbatim as a Number,
// which Encode then accepts only if the text is already canonical.
func Parse(data []byte) (Value, error) {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, signiaerr.Newf(signiaerr.CanonicalizationFailed, "unsupported_value").Wrap(err)
	}
	return fromRaw(raw)
}

func fromRaw(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return nil, nil
	case bool:
		return t, nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, nil
		}
		return Number(t.String()), nil
	case string:
		return t, nil
	case []any:
		out := make([]Value, len(t))
		for i, v := range t {
			cv, err := fromRaw(v)
			if err != nil {
				return nil, err
			}
			out[i] = cv
		}
		return out, nil
	case map[string]any:
		out := make(Object, len(t))
		for k, v := range t {
			cv, err := fromRaw(v)
			if err != nil {
				return nil, err
			}
			out[k] = cv
		}
		return out, nil
	default:
		return nil, signiaerr.Newf(signiaerr.CanonicalizationFailed, "unsupported_value")
	}
}
