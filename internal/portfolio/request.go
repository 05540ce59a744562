package portfolio

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// UnmarshalJSON decodes a request whose efficiencies may be JSON numbers or numeric
// strings such as "50", which is how form inputs are posted. A null efficiency
// counts as missing. Any other value is kept aside and reported by Run as a
// *ValidationError for its channel, so decoding itself only fails on malformed JSON.
func (r *Request) UnmarshalJSON(data []byte) error {
	var raw struct {
		Efficiencies map[string]json.RawMessage `json:"efficiencies"`
		Models       map[string]string          `json:"models"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return eris.Wrap(err, "portfolio: decode request")
	}

	*r = Request{Models: raw.Models}
	if raw.Efficiencies == nil {
		return nil
	}

	r.Efficiencies = make(map[string]float64, len(raw.Efficiencies))
	for ch, value := range raw.Efficiencies {
		if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			continue
		}
		eff, ok := parseEfficiency(value)
		if !ok {
			if r.malformed == nil {
				r.malformed = make(map[string]string)
			}
			r.malformed[ch] = string(value)
			continue
		}
		r.Efficiencies[ch] = eff
	}
	return nil
}

func parseEfficiency(value json.RawMessage) (float64, bool) {
	var number float64
	if err := json.Unmarshal(value, &number); err == nil {
		return number, true
	}

	var text string
	if err := json.Unmarshal(value, &text); err != nil {
		return 0, false
	}
	number, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, false
	}
	return number, true
}
