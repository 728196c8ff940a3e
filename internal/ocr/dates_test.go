package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateLayouts(t *testing.T) {
	cases := []string{
		"2021-03-09",
		"20210309",
		"09.03.2021",
		"09/03/2021",
		"2021/03/09",
		"9 March 2021",
		"9 Mar 2021",
		"March 9, 2021",
		"Mar 9, 2021",
		"  2021-03-09  ",
	}
	for _, raw := range cases {
		parsed, err := ParseDate(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, 2021, parsed.Year(), raw)
		assert.Equal(t, 3, int(parsed.Month()), raw)
		assert.Equal(t, 9, parsed.Day(), raw)
	}
}

func TestParseDateRejectsEmpty(t *testing.T) {
	_, err := ParseDate("   ")
	assert.Error(t, err)
}

func TestParseDateRejectsGarbage(t *testing.T) {
	_, err := ParseDate("not a date")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not a date")
}
