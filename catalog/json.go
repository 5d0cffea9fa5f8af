package catalog

import (
	"bytes"
	"encoding/json"
)

// Members modelled by each document type. Anything else read from a catalog
// lands in the type's Extra map and is merged back on write, in sorted key
// order like the modelled members.
var (
	catalogMembers      = []string{"sourceLanguage", "strings", "version"}
	entryMembers        = []string{"comment", "extractionState", "localizations", "shouldTranslate"}
	localizationMembers = []string{"stringUnit", "substitutions", "variations"}
	variationSetMembers = []string{"device", "plural"}
	variationMembers    = []string{"stringUnit", "variations"}
	unitMembers         = []string{"state", "value"}
)

func (c *Catalog) UnmarshalJSON(data []byte) error {
	type plain Catalog
	if err := json.Unmarshal(data, (*plain)(c)); err != nil {
		return err
	}
	return unknownMembers(data, catalogMembers, &c.Extra)
}

func (c Catalog) MarshalJSON() ([]byte, error) {
	type plain Catalog
	return withExtra(plain(c), c.Extra)
}

func (e *StringEntry) UnmarshalJSON(data []byte) error {
	type plain StringEntry
	if err := json.Unmarshal(data, (*plain)(e)); err != nil {
		return err
	}
	return unknownMembers(data, entryMembers, &e.Extra)
}

func (e StringEntry) MarshalJSON() ([]byte, error) {
	type plain StringEntry
	return withExtra(plain(e), e.Extra)
}

func (l *Localization) UnmarshalJSON(data []byte) error {
	type plain Localization
	if err := json.Unmarshal(data, (*plain)(l)); err != nil {
		return err
	}
	return unknownMembers(data, localizationMembers, &l.Extra)
}

func (l Localization) MarshalJSON() ([]byte, error) {
	type plain Localization
	return withExtra(plain(l), l.Extra)
}

func (vs *VariationSet) UnmarshalJSON(data []byte) error {
	type plain VariationSet
	if err := json.Unmarshal(data, (*plain)(vs)); err != nil {
		return err
	}
	return unknownMembers(data, variationSetMembers, &vs.Extra)
}

func (vs VariationSet) MarshalJSON() ([]byte, error) {
	type plain VariationSet
	return withExtra(plain(vs), vs.Extra)
}

func (v *Variation) UnmarshalJSON(data []byte) error {
	type plain Variation
	if err := json.Unmarshal(data, (*plain)(v)); err != nil {
		return err
	}
	return unknownMembers(data, variationMembers, &v.Extra)
}

func (v Variation) MarshalJSON() ([]byte, error) {
	type plain Variation
	return withExtra(plain(v), v.Extra)
}

func (u *StringUnit) UnmarshalJSON(data []byte) error {
	type plain StringUnit
	if err := json.Unmarshal(data, (*plain)(u)); err != nil {
		return err
	}
	return unknownMembers(data, unitMembers, &u.Extra)
}

func (u StringUnit) MarshalJSON() ([]byte, error) {
	type plain StringUnit
	return withExtra(plain(u), u.Extra)
}

// unknownMembers stores the members of the object in data that are not
// listed in known. extra is left nil when there are none.
func unknownMembers(data []byte, known []string, extra *map[string]RawJSON) error {
	var members map[string]RawJSON
	if err := json.Unmarshal(data, &members); err != nil {
		return err
	}
	for _, name := range known {
		delete(members, name)
	}
	if len(members) == 0 {
		*extra = nil
		return nil
	}
	*extra = members
	return nil
}

// withExtra encodes v and adds the members of extra that v does not set.
func withExtra(v any, extra map[string]RawJSON) ([]byte, error) {
	data, err := encode(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}
	var members map[string]RawJSON
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, err
	}
	for name, raw := range extra {
		if _, ok := members[name]; !ok {
			members[name] = raw
		}
	}
	return encode(members)
}

// encode is json.Marshal without HTML escaping.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
