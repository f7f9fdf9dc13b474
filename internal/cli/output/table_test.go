package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTable struct {
	headers []string
	rows    [][]string
}

func (f fakeTable) Headers() []string { return f.headers }
func (f fakeTable) Rows() [][]string  { return f.rows }

func TestPrintTable(t *testing.T) {
	table := fakeTable{
		headers: []string{"Name", "Value"},
		rows: [][]string{
			{"key1", "value1"},
			{"key2", "value2"},
		},
	}

	var buf bytes.Buffer
	err := PrintTable(&buf, table)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "NAME")
	assert.Contains(t, output, "VALUE")
	assert.Contains(t, output, "key1")
	assert.Contains(t, output, "value1")
	assert.Contains(t, output, "key2")
	assert.Contains(t, output, "value2")
}
