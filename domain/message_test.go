package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileContent_RoundTrip(t *testing.T) {
	req := require.New(t)

	content := FileContent("report.pdf", "/uploads/abc.pdf")
	req.Equal("report.pdf|/uploads/abc.pdf", content)

	name, url, ok := ParseFileContent(content)
	req.True(ok)
	req.Equal("report.pdf", name)
	req.Equal("/uploads/abc.pdf", url)
}

func TestParseFileContent_NameContainingSeparator(t *testing.T) {
	req := require.New(t)

	name, url, ok := ParseFileContent("weird|name.txt|/uploads/x.txt")
	req.True(ok)
	req.Equal("weird|name.txt", name)
	req.Equal("/uploads/x.txt", url)
}

func TestParseFileContent_Invalid(t *testing.T) {
	req := require.New(t)

	_, _, ok := ParseFileContent("no separator here")
	req.False(ok)
	_, _, ok = ParseFileContent("|/uploads/x.txt")
	req.False(ok)
	_, _, ok = ParseFileContent("name.txt|")
	req.False(ok)
}

func TestIsBlank(t *testing.T) {
	req := require.New(t)

	req.True(IsBlank(""))
	req.True(IsBlank("   \t\n"))
	req.False(IsBlank(" hi "))
}
