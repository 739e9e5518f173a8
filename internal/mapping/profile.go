package mapping

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/pkg/errors"

	"github.com/soar/retrocouch/internal/action"
)

// Mapping is a table from action to source. Absent actions resolve to
// their default.
type Mapping map[action.Action]Source

// Profile is a named, reusable mapping.
type Profile struct {
	Name      string
	IsDefault bool
	Mapping   Mapping
}

// Clone returns a copy whose mapping can be edited without touching p.
func (p Profile) Clone() Profile {
	c := p
	c.Mapping = make(Mapping, len(p.Mapping))
	for a, src := range p.Mapping {
		c.Mapping[a] = src
	}
	return c
}

// MarshalJSON implements json.Marshaler. Sources are written as a string or
// a {pos, neg} object.
func (m Mapping) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(m))
	for a := range m {
		keys = append(keys, string(a))
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		src, err := marshalSource(m[action.Action(k)])
		if err != nil {
			return nil, errors.Wrapf(err, "action %s", k)
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(src)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler. Unknown actions and null
// entries are dropped; a source of any other shape is an error.
func (m *Mapping) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "mapping")
	}

	out := make(Mapping, len(raw))
	for name, msg := range raw {
		a, ok := action.Parse(name)
		if !ok || bytes.Equal(bytes.TrimSpace(msg), []byte("null")) {
			continue
		}
		src, err := parseSource(msg)
		if err != nil {
			return errors.Wrapf(err, "action %s", name)
		}
		out[a] = src
	}
	*m = out
	return nil
}

type profileJSON struct {
	Name      string  `json:"name"`
	IsDefault bool    `json:"isDefault"`
	Mapping   Mapping `json:"mapping"`
}

// MarshalJSON implements json.Marshaler.
func (p Profile) MarshalJSON() ([]byte, error) {
	m := p.Mapping
	if m == nil {
		m = Mapping{}
	}
	return json.Marshal(profileJSON{Name: p.Name, IsDefault: p.IsDefault, Mapping: m})
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Profile) UnmarshalJSON(data []byte) error {
	var pj profileJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return err
	}
	if pj.Mapping == nil {
		pj.Mapping = Mapping{}
	}
	*p = Profile{Name: pj.Name, IsDefault: pj.IsDefault, Mapping: pj.Mapping}
	return nil
}
