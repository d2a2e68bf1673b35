// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package encode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImagePaths(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "space in filename is encoded",
			in:   "![Image](plot 1.png)",
			want: "![Image](plot%201.png)",
		},
		{
			name: "safe characters pass through",
			in:   "![Image](fig/a-b_c.png)",
			want: "![Image](fig/a-b_c.png)",
		},
		{
			name: "parentheses in filename",
			in:   "![Image](report (final).png)",
			want: "![Image](report%20%28final%29.png)",
		},
		{
			name: "path separators and dots preserved",
			in:   "![Image](paper_artifacts/image_000000_abc.png)",
			want: "![Image](paper_artifacts/image_000000_abc.png)",
		},
		{
			name: "absolute path keeps colon and slashes",
			in:   "![Image](C:/out/fig 1.png)",
			want: "![Image](C:/out/fig%201.png)",
		},
		{
			name: "non-image line unchanged",
			in:   "# Heading with spaces and (parens)",
			want: "# Heading with spaces and (parens)",
		},
		{
			name: "link without raster extension unchanged",
			in:   "![Image](diagram.svg)",
			want: "![Image](diagram.svg)",
		},
		{
			name: "plain markdown link unchanged",
			in:   "[doc](my file.pdf)",
			want: "[doc](my file.pdf)",
		},
		{
			name: "jpeg extension is recognized",
			in:   "![Image](scan page.jpeg)",
			want: "![Image](scan%20page.jpeg)",
		},
		{
			name: "trailing whitespace after closing paren",
			in:   "![Image](fig 2.png)  ",
			want: "![Image](fig%202.png)  ",
		},
		{
			name: "empty string",
			in:   "",
			want: "",
		},
		{
			name: "marker with nothing after it",
			in:   "![Image](",
			want: "![Image](",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ImagePaths(tt.in))
		})
	}
}

func TestImagePaths_Idempotent(t *testing.T) {
	inputs := []string{
		"![Image](plot 1.png)",
		"![Image](already%20encoded.png)",
		"![Image](50% off.png)",
		"![Image](fig/a-b_c.png)",
		"plain text\n![Image](two words.png)\nmore text",
	}

	for _, in := range inputs {
		once := ImagePaths(in)
		twice := ImagePaths(once)
		assert.Equal(t, once, twice, "re-encoding %q must not double-encode", in)
	}
}

func TestImagePaths_BarePercentEncoded(t *testing.T) {
	// A % not starting a valid escape gets encoded; a valid escape does not.
	assert.Equal(t, "![Image](50%25.png)", ImagePaths("![Image](50%.png)"))
	assert.Equal(t, "![Image](a%20b.png)", ImagePaths("![Image](a%20b.png)"))
}

func TestImagePaths_PreservesLineStructure(t *testing.T) {
	in := "# Title\n\n![Image](fig 1.png)\n\ntext after\n![Image](fig 2.png)\n"
	out := ImagePaths(in)

	inLines := strings.Split(in, "\n")
	outLines := strings.Split(out, "\n")
	assert.Equal(t, len(inLines), len(outLines))

	// Non-candidate lines are byte-for-byte unchanged.
	for i, line := range inLines {
		if !strings.Contains(line, "![Image](") {
			assert.Equal(t, line, outLines[i])
		}
	}
}

func TestImagePaths_MultilineDocument(t *testing.T) {
	in := "intro\n![Image](a b.png)\n![Image](clean.png)\noutro"
	want := "intro\n![Image](a%20b.png)\n![Image](clean.png)\noutro"
	assert.Equal(t, want, ImagePaths(in))
}
