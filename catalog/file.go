package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// RawJSON is catalog content the tool does not interpret (substitutions,
// nested variations). It is written back as read, re-indented.
type RawJSON = json.RawMessage

// ErrDecode is wrapped by every error caused by malformed catalog content.
var ErrDecode = errors.New("malformed string catalog")

// FileExt is the conventional catalog file extension.
const FileExt = ".xcstrings"

// ---------------------------------------------------------------------------
// Reading
// ---------------------------------------------------------------------------

// Parse decodes a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if c.SourceLanguage == "" {
		return nil, fmt.Errorf("%w: missing sourceLanguage", ErrDecode)
	}
	if c.Strings == nil {
		c.Strings = make(map[string]*StringEntry)
	}
	return &c, nil
}

// Load reads and decodes the catalog at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return c, nil
}

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

// Marshal serializes the catalog deterministically: fields in fixed order,
// map keys sorted, two-space indentation with Xcode's `"key" : value`
// separator, and a trailing newline.
func Marshal(c *Catalog) ([]byte, error) {
	var compact bytes.Buffer
	enc := json.NewEncoder(&compact)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("encoding catalog: %w", err)
	}

	var out bytes.Buffer
	out.Grow(compact.Len() * 2)
	indent(&out, bytes.TrimSpace(compact.Bytes()))
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// Save writes the catalog to path. The write goes through a temporary file
// in the same directory and a rename, so readers never see a partial file.
// Nothing is written when the file already holds identical bytes.
func Save(c *Catalog, path string) error {
	data, err := Marshal(c)
	if err != nil {
		return err
	}

	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, data) {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// indent pretty-prints compact JSON in the layout Xcode uses for string
// catalogs. src must be valid compact JSON.
func indent(dst *bytes.Buffer, src []byte) {
	depth := 0
	inString := false
	escaped := false

	newline := func() {
		dst.WriteByte('\n')
		for i := 0; i < depth; i++ {
			dst.WriteString("  ")
		}
	}

	for i := 0; i < len(src); i++ {
		c := src[i]
		if inString {
			dst.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
			dst.WriteByte(c)
		case '{', '[':
			dst.WriteByte(c)
			if i+1 < len(src) && src[i+1] == '}' {
				// Xcode writes an empty object over a blank line.
				dst.WriteByte('\n')
				newline()
				dst.WriteByte('}')
				i++
				continue
			}
			if i+1 < len(src) && src[i+1] == ']' {
				dst.WriteByte(']')
				i++
				continue
			}
			depth++
			newline()
		case '}', ']':
			depth--
			newline()
			dst.WriteByte(c)
		case ',':
			dst.WriteByte(c)
			newline()
		case ':':
			dst.WriteString(" : ")
		default:
			dst.WriteByte(c)
		}
	}
}
