package builtin

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Call(t *testing.T) {
	t.Setenv("DECOREST_BUILTIN_TEST", "from-env")
	r := NewRegistry()

	tests := []struct {
		expr string
		want string
	}{
		{expr: `base64("user:pass")`, want: "dXNlcjpwYXNz"},
		{expr: `basicAuth('user', "pass")`, want: "Basic dXNlcjpwYXNz"},
		{expr: `urlEncode("a b&c")`, want: "a+b%26c"},
		{expr: `sha256("abc")`, want: "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{expr: `env(DECOREST_BUILTIN_TEST)`, want: "from-env"},
		{expr: `env("DECOREST_BUILTIN_MISSING", "fallback")`, want: "fallback"},
		{expr: `date("2006")`, want: time.Now().UTC().Format("2006")},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := r.Call(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistry_CallUUID(t *testing.T) {
	got, err := NewRegistry().Call("uuid()")
	require.NoError(t, err)
	_, err = uuid.Parse(got)
	assert.NoError(t, err)
}

func TestRegistry_CallErrors(t *testing.T) {
	r := NewRegistry()

	_, err := r.Call("nope()")
	assert.ErrorIs(t, err, ErrUnknownFunction)

	_, err = r.Call("base64()")
	assert.ErrorContains(t, err, "base64(): expects 1 argument(s), got 0")

	_, err = r.Call(`env("DECOREST_BUILTIN_MISSING")`)
	assert.ErrorContains(t, err, "not set")

	_, err = r.Call("plain")
	assert.Error(t, err)
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	r.Register("upper", func(args []string) (string, error) { return "UP:" + args[0], nil })

	got, err := r.Call("upper(x)")
	require.NoError(t, err)
	assert.Equal(t, "UP:x", got)
}

func TestParseArgs(t *testing.T) {
	assert.Equal(t, []string{"a", "b, c", "d"}, parseArgs(`a, "b, c", 'd'`))
	assert.Nil(t, parseArgs(""))
	assert.True(t, IsCall("uuid()"))
	assert.False(t, IsCall("name"))
}
