package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const sessionDump = `
windows:
- active: true
  geometry: !!binary AdnQywACAAAAAAAAAAAAAAAAA1UAAAJXAAAAAAAA
  tabs:
  - active: true
    history:
    - title: about:blank
      url: about:blank
    - active: true
      title: http://localhost:5000/data/numbers/1.txt
      url: http://localhost:5000/data/numbers/1.txt
      zoom: 1.0
      scroll-pos:
        x: 0
        y: 0
`

func decode(t *testing.T, text string) interface{} {
	t.Helper()
	var v interface{}
	require.NoError(t, yaml.Unmarshal([]byte(text), &v))
	return v
}

func TestParseExpectedEllipsis(t *testing.T) {
	got, err := ParseExpected(`
windows:
- tabs:
  - history:
    - ...
    - url: http://localhost/data/numbers/1.txt
  geometry: ...
tagged: !ellipsis whatever
quoted: "..."
`)
	require.NoError(t, err)

	m := got.(map[string]interface{})
	assert.Equal(t, Ellipsis, m["tagged"])
	assert.Equal(t, "...", m["quoted"], "quoted dots stay a string")

	win := m["windows"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, Ellipsis, win["geometry"])
	history := win["tabs"].([]interface{})[0].(map[string]interface{})["history"].([]interface{})
	assert.Equal(t, Ellipsis, history[0])
}

func TestPartialSession(t *testing.T) {
	actual := decode(t, sessionDump)

	tests := []struct {
		name     string
		expected string
		wantPath string
	}{
		{
			name: "subset with ellipsis",
			expected: `
windows:
- tabs:
  - history:
    - ...
    - url: http://localhost:5000/data/numbers/1.txt
      zoom: 1.0000001
`,
		},
		{
			name: "ints compare with floats",
			expected: `
windows:
- tabs:
  - history:
    - ...
    - zoom: 1
`,
		},
		{
			name: "wrong url",
			expected: `
windows:
- tabs:
  - history:
    - ...
    - url: http://localhost:5000/data/numbers/2.txt
`,
			wantPath: "windows[0].tabs[0].history[1].url",
		},
		{
			name: "list length matters",
			expected: `
windows:
- tabs:
  - history:
    - url: about:blank
`,
			wantPath: "windows[0].tabs[0].history",
		},
		{
			name: "missing key",
			expected: `
windows:
- pinned: true
`,
			wantPath: "windows[0].pinned",
		},
		{
			name:     "type mismatch",
			expected: `windows: {}`,
			wantPath: "windows",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expected, err := ParseExpected(tt.expected)
			require.NoError(t, err)

			err = Partial(actual, expected)
			if tt.wantPath == "" {
				assert.NoError(t, err)
				return
			}
			var mismatch *MismatchError
			require.ErrorAs(t, err, &mismatch)
			assert.Equal(t, tt.wantPath, mismatch.Path)
		})
	}
}

func TestPartialScalars(t *testing.T) {
	assert.NoError(t, Partial("anything", Ellipsis))
	assert.NoError(t, Partial(nil, Ellipsis))
	assert.NoError(t, Partial(1.0, 1.000001))
	assert.Error(t, Partial(1.0, 1.1))
	assert.NoError(t, Partial(3, 3))
	assert.NoError(t, Partial(int64(3), 3.0))
	assert.Error(t, Partial("3", 3))
	assert.NoError(t, Partial(true, true))
	assert.Error(t, Partial(nil, "x"))
}

func TestPartialInterfaceKeyedMaps(t *testing.T) {
	actual := map[interface{}]interface{}{"a": 1, 2: "two"}
	assert.NoError(t, Partial(actual, map[string]interface{}{"a": 1, "2": "two"}))
}

func TestMismatchErrorMessage(t *testing.T) {
	err := &MismatchError{Reason: "expected a mapping, got string"}
	assert.Equal(t, "mismatch at <root>: expected a mapping, got string", err.Error())
}

func TestDiffIgnoresEllipsis(t *testing.T) {
	assert.Empty(t, Diff(Ellipsis, Ellipsis))
	assert.NotEmpty(t, Diff(map[string]interface{}{"a": 1}, map[string]interface{}{"a": 2}))
}
