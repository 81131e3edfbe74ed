package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestEmbeddedFixturesAreConsistent(t *testing.T) {
	var fx fixtures
	require.NoError(t, yaml.Unmarshal(defaultFixtures, &fx))

	assert.Equal(t, "localhost", fx.Tenant.Domain)
	require.NotEmpty(t, fx.Library)
	require.NotEmpty(t, fx.Templates)

	titles := map[string]bool{}
	for _, item := range fx.Library {
		assert.False(t, titles[item.Title], "duplicate library title %q", item.Title)
		titles[item.Title] = true
	}
	for _, tmpl := range fx.Templates {
		used := map[string]bool{}
		for _, task := range tmpl.Tasks {
			assert.True(t, titles[task], "template %q references unknown task %q", tmpl.Name, task)
			assert.False(t, used[task], "template %q lists %q twice", tmpl.Name, task)
			used[task] = true
		}
	}
}
