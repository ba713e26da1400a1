package carbon

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRequestURL(t *testing.T) {
	req := BuildImageRequest("def f():\n    return 1", map[string]string{
		"backgroundColor": "#C4F2FD",
		"fontSize":        "14px",
	})

	got, err := BuildRequestURL("https://carbon.now.sh/", req)
	require.NoError(t, err)

	assert.Equal(t,
		"https://carbon.now.sh/?bg=%23C4F2FD&code=def%2Bf%2528%2529%253A%250A%2B%2B%2B%2Breturn%2B1&fs=14px&l=Python&t=Sethi",
		got)
}

func TestBuildRequestURL_Deterministic(t *testing.T) {
	params := map[string]string{
		"backgroundColor": "fff", "fontFamily": "Hack", "lineNumbers": "true",
		"paddingVertical": "8px", "paddingHorizontal": "8px", "watermark": "false",
	}
	first, err := BuildRequestURL("https://renderer.local/cook", BuildImageRequest("x\ny", params))
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		again, err := BuildRequestURL("https://renderer.local/cook", BuildImageRequest("x\ny", params))
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestBuildRequestURL_KeepsExistingQueryAndNewlineToken(t *testing.T) {
	got, err := BuildRequestURL("http://renderer.local/api?format=png", BuildImageRequest("a\nb", nil))
	require.NoError(t, err)

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "png", u.Query().Get("format"))
	// One decode leaves the escape token for the renderer's second pass.
	assert.Equal(t, "a%0Ab", u.Query().Get("code"))
	assert.Equal(t, "Sethi", u.Query().Get("t"))
	assert.Equal(t, "Python", u.Query().Get("l"))
}

func TestBuildRequestURL_BadBase(t *testing.T) {
	_, err := BuildRequestURL("://nope", BuildImageRequest("x", nil))
	assert.Error(t, err)
}

// decodeCode applies the renderer's two decodes to the code parameter.
func decodeCode(t *testing.T, rawURL string) string {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	code, err := url.QueryUnescape(u.Query().Get("code"))
	require.NoError(t, err)
	return code
}

func TestBuildRequestURL_CodeSurvivesDoubleDecode(t *testing.T) {
	tests := []string{
		"100% done",
		`print("%d" % x)`,
		"x = a % b + c",
		"a\nb",
		"def f():\n    return {'k': 'v&w=1'}",
		"caf\u00e9 # ünïcode",
	}
	for _, code := range tests {
		t.Run(code, func(t *testing.T) {
			got, err := BuildRequestURL("https://carbon.now.sh/", BuildImageRequest(code, nil))
			require.NoError(t, err)
			assert.Equal(t, code, decodeCode(t, got))
		})
	}
}

func TestBuildRequestURL_NewlinesDecodeToNewlines(t *testing.T) {
	got, err := BuildRequestURL("https://carbon.now.sh/", BuildImageRequest("if x:\n\tprint(\"%s\" % x)\n", nil))
	require.NoError(t, err)
	assert.Equal(t, "if x:\n\tprint(\"%s\" % x)\n", decodeCode(t, got))
}
