package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLine(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("  alice@example.com \n"))
	var out bytes.Buffer

	got, err := ReadLine(in, "Email", &out)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got)
	assert.Equal(t, "Email: ", out.String())
}

func TestReadLine_EOF(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("lastline"))
	got, err := ReadLine(in, "Name?", &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "lastline", got)

	_, err = ReadLine(bufio.NewReader(strings.NewReader("")), "Name?", &bytes.Buffer{})
	require.Error(t, err)
}

func TestGetPassword(t *testing.T) {
	old := readPassword
	t.Cleanup(func() { readPassword = old })

	readPassword = func(int) ([]byte, error) { return []byte("s3cret"), nil }
	var out bytes.Buffer
	pw, err := GetPassword(&out)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", pw)
	assert.Equal(t, "Password: \n", out.String())

	readPassword = func(int) ([]byte, error) { return nil, errors.New("boom") }
	_, err = GetPassword(&bytes.Buffer{})
	require.Error(t, err)
}
