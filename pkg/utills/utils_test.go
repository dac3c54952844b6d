package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	valid := []string{
		"visitor@example.com",
		"  First.Last@Sub.Example.co.uk ",
		"a+tag@example.io",
		`"quoted name"@example.com`,
		"user@[192.168.0.1]",
	}
	for _, e := range valid {
		assert.True(t, IsValidEmail(e), e)
	}

	invalid := []string{
		"",
		"plainaddress",
		"@example.com",
		"user@",
		"user@example",
		"user@example.c",
		"us er@example.com",
		"user..dots@example.com",
		"user@exa_mple.com",
	}
	for _, e := range invalid {
		assert.False(t, IsValidEmail(e), e)
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "visitor@example.com", NormalizeEmail("  Visitor@Example.COM "))
}

func TestFormatResponseTime(t *testing.T) {
	cases := map[float64]string{
		0:       "0ms",
		850:     "850ms",
		12.5:    "12.5ms",
		999.999: "1000ms",
		1000:    "1s",
		1250:    "1.25s",
		1500:    "1.5s",
		61234:   "61.23s",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatResponseTime(in), "input %v", in)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcdefg...", Truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", Truncate("abcdef", 2))

	long := strings.Repeat("é", 60)
	got := Truncate(long, 10)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("é", 7)+"...", got)
	assert.Equal(t, "日本語", Truncate("日本語", 3))
}

func TestHasLetterAndNumber(t *testing.T) {
	assert.True(t, HasLetter("123a"))
	assert.False(t, HasLetter("1234"))
	assert.True(t, HasNumber("abc1"))
	assert.False(t, HasNumber("abcd"))
}
