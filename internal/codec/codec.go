// Package codec reads and writes job descriptor files.
//
// Producers write Windows paths with single, unescaped backslashes. Input is
// normalised so every backslash is escaped before decoding, and the encoder's
// escaped backslashes are collapsed again on output. Untouched content
// therefore round-trips byte for byte. Values that need other JSON escapes
// (quotes, control characters) do not survive this convention.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/msageha/stfd/internal/logging"
	"github.com/msageha/stfd/internal/model"
)

// DeserializationError means the file content could not be turned into a
// descriptor. Nothing is returned alongside it.
type DeserializationError struct {
	Path string
	Err  error
}

func (e *DeserializationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("deserialize descriptor: %v", e.Err)
	}
	return fmt.Sprintf("deserialize %s: %v", filepath.Base(e.Path), e.Err)
}

func (e *DeserializationError) Unwrap() error { return e.Err }

type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialize descriptor: %v", e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// Decrypter turns an encrypted header password into clear text.
type Decrypter interface {
	Decrypt(encoded string) (string, error)
}

type Codec struct {
	decrypter Decrypter
	encrypted bool
	logger    *logging.Logger
}

// New returns a codec. When encrypted is true, header passwords are decrypted
// with d, which must then be non-nil.
func New(d Decrypter, encrypted bool, logger *logging.Logger) *Codec {
	return &Codec{decrypter: d, encrypted: encrypted, logger: logger.WithComponent("codec")}
}

func (c *Codec) Deserialize(path string) (*model.Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &DeserializationError{Path: path, Err: err}
	}
	d, err := c.Decode(data)
	if err != nil {
		var de *DeserializationError
		if errors.As(err, &de) {
			de.Path = path
		}
		return nil, err
	}
	c.logger.Debugf("deserialized %s", filepath.Base(path))
	return d, nil
}

func (c *Codec) Decode(data []byte) (*model.Descriptor, error) {
	text := EscapeBackslashes(string(data))

	var d model.Descriptor
	if err := json.Unmarshal([]byte(text), &d); err != nil {
		return nil, &DeserializationError{Err: err}
	}
	if d.HeaderFields != nil && d.HeaderFields.EmpowerPw != "" && c.encrypted {
		if c.decrypter == nil {
			return nil, &DeserializationError{Err: errors.New("passwords are encrypted but no shared secret is configured")}
		}
		plain, err := c.decrypter.Decrypt(d.HeaderFields.EmpowerPw)
		if err != nil {
			return nil, &DeserializationError{Err: fmt.Errorf("decrypt EmpowerPw: %w", err)}
		}
		d.HeaderFields.LoginPassword = plain
	}
	return &d, nil
}

// Serialize encodes d with two-space indentation and the field order of the
// model types. Output is deterministic.
func (c *Codec) Serialize(d *model.Descriptor) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return nil, &SerializationError{Err: err}
	}
	out := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	return []byte(UnescapeBackslashes(string(out))), nil
}

// EscapeBackslashes collapses escaped backslashes and then escapes every
// backslash, so both `C:\x` and `C:\\x` decode to the same value.
func EscapeBackslashes(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, `\\`, `\`), `\`, `\\`)
}

func UnescapeBackslashes(s string) string {
	return strings.ReplaceAll(s, `\\`, `\`)
}
