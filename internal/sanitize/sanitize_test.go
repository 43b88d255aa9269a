package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	cases := map[string]string{
		"":                                 "",
		"  Fatima Ali ":                    "Fatima Ali",
		"<b>bold</b> note":                 "bold note",
		"<script>alert(1)</script>Riyadh":  "Riyadh",
		"Al Noor & Sons":                   "Al Noor & Sons",
		`<a href="javascript:x">click</a>`: "click",
	}
	for in, want := range cases {
		assert.Equal(t, want, Text(in), in)
	}
}

func TestPtr(t *testing.T) {
	assert.Nil(t, Ptr(nil))
	in := "<i>x</i>"
	assert.Equal(t, "x", *Ptr(&in))
}
