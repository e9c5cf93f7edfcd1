package codec

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msageha/stfd/internal/logging"
	"github.com/msageha/stfd/internal/model"
	"github.com/msageha/stfd/internal/secret"
)

func readGolden(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "descriptor.golden.json"))
	require.NoError(t, err)
	return data
}

func TestGoldenRoundTrip(t *testing.T) {
	c := New(nil, false, logging.Discard())
	golden := readGolden(t)

	d, err := c.Decode(golden)
	require.NoError(t, err)

	out, err := c.Serialize(d)
	require.NoError(t, err)
	assert.Equal(t, string(golden), string(out))
}

func TestDecodeGoldenContent(t *testing.T) {
	c := New(nil, false, logging.Discard())
	d, err := c.Decode(readGolden(t))
	require.NoError(t, err)

	assert.Equal(t, `Lab\Stability`, d.HeaderFields.EmpowerProject)
	require.Len(t, d.SampleSetDetails, 2)

	first := d.SampleSetDetails[0]
	assert.True(t, first.IsNew)
	assert.Equal(t, 4711, first.ExperimentID)
	assert.Nil(t, first.Status)
	require.Len(t, first.Samples, 2)
	v, ok := first.Samples[0].Text(model.KeyMethodSetOrReportMethod)
	require.True(t, ok)
	assert.Equal(t, `C:\Methods\Assay`, v)
	n, err := first.Samples[1].LineNumber()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, `Lab\Cleaning`, d.SampleSetDetails[1].Project)
	assert.Empty(t, first.Project)
}

func TestSerializeIsDeterministic(t *testing.T) {
	c := New(nil, false, logging.Discard())
	d, err := c.Decode(readGolden(t))
	require.NoError(t, err)

	a, err := c.Serialize(d)
	require.NoError(t, err)
	b, err := c.Serialize(d)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSerializeWritesResults(t *testing.T) {
	c := New(nil, false, logging.Discard())
	d, err := c.Decode(readGolden(t))
	require.NoError(t, err)

	d.SampleSetDetails[0].SetResult(model.OutcomeFailed, `Cannot save SSM: Assay 2024-03. Error: path D:\x`)
	d.TrailerReport.SetResult(model.OutcomeCompleted, "File completed '2' ssm processed, 1 succeeded, 1 failed.")

	out, err := c.Serialize(d)
	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, `"Status": "Failed"`)
	assert.Contains(t, text, `"SampleSetMethodRunReport": "Cannot save SSM: Assay 2024-03. Error: path D:\x"`)
	assert.Contains(t, text, `"FileVerified": true`)
	assert.Contains(t, text, `"FileProcessReport": "File completed '2' ssm processed, 1 succeeded, 1 failed."`)
}

func TestEscapeBackslashes(t *testing.T) {
	assert.Equal(t, `C:\\x`, EscapeBackslashes(`C:\x`))
	assert.Equal(t, `C:\\x`, EscapeBackslashes(`C:\\x`))
	assert.Equal(t, `C:\x`, UnescapeBackslashes(`C:\\x`))
	assert.Equal(t, "plain", UnescapeBackslashes(EscapeBackslashes("plain")))
}

func TestDecodeMalformed(t *testing.T) {
	c := New(nil, false, logging.Discard())
	for name, in := range map[string]string{
		"truncated":     `{"HeaderFields": {`,
		"wrong type":    `{"SampleSetDetails": {}}`,
		"trailing data": `{} {}`,
		"sample array":  `{"SampleSetDetails":[{"Samples":[[1]]}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			d, err := c.Decode([]byte(in))
			assert.Nil(t, d)
			var de *DeserializationError
			assert.True(t, errors.As(err, &de), "got %v", err)
		})
	}
}

func TestDeserializeSetsPath(t *testing.T) {
	c := New(nil, false, logging.Discard())
	path := filepath.Join(t.TempDir(), "A_B_240101_0800.lck.json")
	require.NoError(t, os.WriteFile(path, []byte("nope"), 0644))

	_, err := c.Deserialize(path)
	var de *DeserializationError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, path, de.Path)
	assert.Contains(t, err.Error(), "A_B_240101_0800.lck.json")

	_, err = c.Deserialize(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorAs(t, err, &de)
}

func TestDecodeEncryptedPassword(t *testing.T) {
	cipher, err := secret.New("shared")
	require.NoError(t, err)
	enc, err := cipher.Encrypt("manager")
	require.NoError(t, err)

	golden := string(readGolden(t))
	text := strings.Replace(golden, `"EmpowerPw": "manager"`, `"EmpowerPw": "`+enc+`"`, 1)

	c := New(cipher, true, logging.Discard())
	d, err := c.Decode([]byte(text))
	require.NoError(t, err)
	assert.Equal(t, "manager", d.HeaderFields.LoginPassword)
	assert.Equal(t, "manager", d.HeaderFields.Password())
	assert.Equal(t, enc, d.HeaderFields.EmpowerPw)

	out, err := c.Serialize(d)
	require.NoError(t, err)
	assert.Equal(t, text, string(out), "ciphertext is written back unchanged")
}

func TestDecodeBadCiphertext(t *testing.T) {
	cipher, _ := secret.New("shared")
	c := New(cipher, true, logging.Discard())

	_, err := c.Decode(readGolden(t))
	var de *DeserializationError
	require.ErrorAs(t, err, &de)
	assert.ErrorIs(t, err, secret.ErrMalformedInput)
}

func TestDecodeEncryptedWithoutDecrypter(t *testing.T) {
	c := New(nil, true, logging.Discard())
	_, err := c.Decode(readGolden(t))
	var de *DeserializationError
	assert.ErrorAs(t, err, &de)
}
