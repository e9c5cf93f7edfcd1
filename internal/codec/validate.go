package codec

import (
	"fmt"
	"strings"

	"github.com/msageha/stfd/internal/model"
)

type ValidationError struct {
	FieldPath string
	Message   string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.FieldPath, e.Message)
}

type ValidationErrors struct {
	Errors []ValidationError
}

func (ve *ValidationErrors) Add(fieldPath, message string) {
	ve.Errors = append(ve.Errors, ValidationError{FieldPath: fieldPath, Message: message})
}

func (ve *ValidationErrors) HasErrors() bool {
	return len(ve.Errors) > 0
}

// Error joins all problems on one line so it fits the trailer report.
func (ve *ValidationErrors) Error() string {
	msgs := make([]string, 0, len(ve.Errors))
	for _, e := range ve.Errors {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks a descriptor against its declared counts and mandatory
// fields. It returns nil or a *ValidationErrors listing every problem found.
func Validate(d *model.Descriptor) error {
	var ve ValidationErrors

	if h := d.HeaderFields; h == nil {
		ve.Add("HeaderFields", "missing")
	} else {
		if h.SampleSets != len(d.SampleSetDetails) {
			ve.Add("HeaderFields.SampleSets", fmt.Sprintf("declares %d sample sets but SampleSetDetails has %d", h.SampleSets, len(d.SampleSetDetails)))
		}
		if h.EmpowerUn == "" || h.EmpowerPw == "" {
			ve.Add("HeaderFields", "EmpowerUn and EmpowerPw must not be empty")
		}
	}
	if len(d.SampleSetDetails) == 0 {
		ve.Add("SampleSetDetails", "must contain at least one sample set")
	}
	if d.TrailerReport == nil {
		ve.Add("TrailerReport", "missing")
	}

	for i, job := range d.SampleSetDetails {
		path := fmt.Sprintf("SampleSetDetails[%d]", i)
		if job == nil {
			ve.Add(path, "is null")
			continue
		}
		if job.SampleCount != len(job.Samples) {
			ve.Add(path+".NumberOfSamples", fmt.Sprintf("declares %d samples but Samples has %d", job.SampleCount, len(job.Samples)))
		}
		for j, line := range job.Samples {
			lp := fmt.Sprintf("%s.Samples[%d]", path, j)
			if _, err := line.LineNumber(); err != nil {
				ve.Add(lp+"."+model.KeyLineNumber, err.Error())
			}
			if line.Function() == "" {
				ve.Add(lp+"."+model.KeyFunction, "must not be empty")
			}
			if line.Vial() == "" {
				ve.Add(lp+"."+model.KeyVial, "must not be empty")
			}
		}
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}
