package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Descriptor is the content of one job file: header, job specs and the trailer
// the service writes back.
type Descriptor struct {
	HeaderFields     *Header    `json:"HeaderFields"`
	SampleSetDetails []*JobSpec `json:"SampleSetDetails"`
	TrailerReport    *Trailer   `json:"TrailerReport"`
}

type Header struct {
	EmpowerProject  string `json:"EmpowerProject"`
	EmpowerDatabase string `json:"EmpowerDatabase"`
	EmpowerUn       string `json:"EmpowerUn"`
	EmpowerPw       string `json:"EmpowerPw"`
	System          string `json:"System"`
	Node            string `json:"Node"`
	SampleSets      int    `json:"SampleSets"`

	// LoginPassword is the clear-text password after decryption. EmpowerPw
	// keeps the value as received so the file is written back unchanged.
	LoginPassword string `json:"-"`
}

// Password returns the password to log in with.
func (h *Header) Password() string {
	if h.LoginPassword != "" {
		return h.LoginPassword
	}
	return h.EmpowerPw
}

type JobSpec struct {
	BaseMethodName string       `json:"BaseSampleSetMethodName"`
	Name           string       `json:"SampleSetName"`
	ExperimentID   int          `json:"ExperimentId"`
	SampleCount    int          `json:"NumberOfSamples"`
	IsNew          bool         `json:"New"`
	Samples        []SampleLine `json:"Samples"`
	Status         *string      `json:"Status"`
	RunReport      *string      `json:"SampleSetMethodRunReport"`
	Project        string       `json:"EmpowerProject,omitempty"`
}

// SetResult records the engine outcome on the job.
func (j *JobSpec) SetResult(status, report string) {
	j.Status = &status
	j.RunReport = &report
}

type Trailer struct {
	FileVerified      bool    `json:"FileVerified"`
	FileProcessed     bool    `json:"FileProcessed"`
	FileStatus        *string `json:"FileStatus"`
	FileProcessReport *string `json:"FileProcessReport"`
}

// SetResult marks the file verified and processed with the given outcome.
func (t *Trailer) SetResult(status, report string) {
	t.FileVerified = true
	t.FileProcessed = true
	t.FileStatus = &status
	t.FileProcessReport = &report
}

// Standard sample line keys. Any other key is a pass-through column.
const (
	KeyLineNumber              = "LineNumber"
	KeyVial                    = "Vial"
	KeyInjVol                  = "InjVol"
	KeyNumOfInjs               = "NumOfInjs"
	KeyLabel                   = "Label"
	KeySampleName              = "SampleName"
	KeyLevel                   = "Level"
	KeyFunction                = "Function"
	KeyMethodSetOrReportMethod = "MethodSetOrReportMethod"
	KeyLabelReference          = "LabelReference"
	KeyProcessing              = "Processing"
	KeyRunTime                 = "RunTime"
	KeyDataStart               = "DataStart"
	KeyNextInjDelay            = "NextInjDelay"
)

// SampleField is one key of a sample line with its raw JSON value.
type SampleField struct {
	Key   string
	Value json.RawMessage
}

// SampleLine is a sample line as received. Key order is preserved so that an
// untouched descriptor serializes back to the same text.
type SampleLine []SampleField

func (s SampleLine) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if len(f.Value) == 0 {
			buf.WriteString("null")
		} else {
			buf.Write(f.Value)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *SampleLine) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*s = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("sample line: expected object, got %v", tok)
	}
	var line SampleLine
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("sample line: expected key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("sample line '%s': %w", key, err)
		}
		line = line.with(key, raw)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*s = line
	return nil
}

// with sets key to raw, replacing an existing key in place.
func (s SampleLine) with(key string, raw json.RawMessage) SampleLine {
	for i := range s {
		if s[i].Key == key {
			s[i].Value = raw
			return s
		}
	}
	return append(s, SampleField{Key: key, Value: raw})
}

// Get returns the raw value of key, or nil when absent.
func (s SampleLine) Get(key string) json.RawMessage {
	for _, f := range s {
		if f.Key == key {
			return f.Value
		}
	}
	return nil
}

// Text returns the value of key as text. Strings are unquoted, null and
// absent keys yield ok=false, anything else is returned as its JSON literal.
func (s SampleLine) Text(key string) (string, bool) {
	return RawText(s.Get(key))
}

// RawText converts a raw JSON scalar to text.
func RawText(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", false
	}
	if trimmed[0] == '"' {
		var v string
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return "", false
		}
		return v, true
	}
	return string(trimmed), true
}

// LineNumber parses the ordering key, accepting a number or numeric string.
func (s SampleLine) LineNumber() (int, error) {
	text, ok := s.Text(KeyLineNumber)
	if !ok {
		return 0, fmt.Errorf("%s missing", KeyLineNumber)
	}
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("%s '%s' is not an integer", KeyLineNumber, text)
	}
	return n, nil
}

func (s SampleLine) Function() string {
	v, _ := s.Text(KeyFunction)
	return v
}

func (s SampleLine) Vial() string {
	v, _ := s.Text(KeyVial)
	return v
}

// IsInjection reports whether the sample line requests an injection.
func (s SampleLine) IsInjection() bool {
	return s.Function() == InjectSamples
}
