package env_test

import (
	"testing"

	"github.com/hilthontt/huddle/internal/infrastructure/env"
	"github.com/stretchr/testify/assert"
)

func TestGetString(t *testing.T) {
	t.Setenv("HUDDLE_TEST_STRING", "value")

	assert.Equal(t, "value", env.GetString("HUDDLE_TEST_STRING", "fallback"))
	assert.Equal(t, "fallback", env.GetString("HUDDLE_TEST_MISSING", "fallback"))
}

func TestGetInt(t *testing.T) {
	t.Setenv("HUDDLE_TEST_INT", " 42 ")
	t.Setenv("HUDDLE_TEST_BAD_INT", "forty-two")

	assert.Equal(t, 42, env.GetInt("HUDDLE_TEST_INT", 7))
	assert.Equal(t, 7, env.GetInt("HUDDLE_TEST_BAD_INT", 7))
	assert.Equal(t, 7, env.GetInt("HUDDLE_TEST_MISSING", 7))
}

func TestGetBool(t *testing.T) {
	t.Setenv("HUDDLE_TEST_BOOL", "true")
	t.Setenv("HUDDLE_TEST_BAD_BOOL", "maybe")

	assert.True(t, env.GetBool("HUDDLE_TEST_BOOL", false))
	assert.False(t, env.GetBool("HUDDLE_TEST_BAD_BOOL", false))
}

func TestGetStrings(t *testing.T) {
	t.Setenv("HUDDLE_TEST_LIST", "http://a.test, http://b.test,,")
	t.Setenv("HUDDLE_TEST_EMPTY_LIST", " , ")

	assert.Equal(t, []string{"http://a.test", "http://b.test"}, env.GetStrings("HUDDLE_TEST_LIST", nil))
	assert.Equal(t, []string{"x"}, env.GetStrings("HUDDLE_TEST_EMPTY_LIST", []string{"x"}))
	assert.Equal(t, []string{"x"}, env.GetStrings("HUDDLE_TEST_MISSING", []string{"x"}))
}
