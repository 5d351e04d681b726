package util

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomValidators(t *testing.T) {
	v := validator.New()
	require.NoError(t, RegisterValidators(v))

	type signup struct {
		Username string `validate:"required,username"`
	}
	assert.NoError(t, v.Struct(signup{Username: "leo.tolstoy+1@ya"}))
	assert.Error(t, v.Struct(signup{Username: "leo tolstoy"}))
	assert.Error(t, v.Struct(signup{Username: "лев/толстой"}))

	type group struct {
		Slug string `validate:"required,slug"`
	}
	assert.NoError(t, v.Struct(group{Slug: "cats_and-dogs"}))
	assert.Error(t, v.Struct(group{Slug: "cats & dogs"}))
}

func TestIsPasswordStrong(t *testing.T) {
	assert.True(t, IsPasswordStrong("Str0ng!pass"))
	assert.False(t, IsPasswordStrong("Sh0rt!"))
	assert.False(t, IsPasswordStrong("alllowercase1!"))
	assert.False(t, IsPasswordStrong("NoDigits!!"))
	assert.False(t, IsPasswordStrong("NoSymbols123"))
}
