package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestParseCommand(t *testing.T) {
	out, _, err := execute(t, "parse", `userName eq "bjensen" and (title pr or emails[type eq "work"])`)
	require.NoError(t, err)
	assert.Equal(t, "userName eq bjensen and (title pr or emails[type eq work])\n", out)
}

func TestParseCommandJSON(t *testing.T) {
	out, _, err := execute(t, "parse", "--json", "title pr")
	require.NoError(t, err)
	assert.JSONEq(t, `{"filter": "title pr", "tree": {"ComparisonExpression": "title pr"}}`, out)
}

func TestParseCommandPathMode(t *testing.T) {
	out, _, err := execute(t, "parse", "--mode", "path", `addresses[type eq "work"].streetAddress`)
	require.NoError(t, err)
	assert.Equal(t, "addresses[type eq work].streetAddress\n", out)

	_, _, err = execute(t, "parse", `addresses[type eq "work"].streetAddress`)
	require.Error(t, err)
}

func TestParseCommandAttributes(t *testing.T) {
	out, _, err := execute(t, "parse", "--attributes", `name.givenName eq "B" or emails[value pr]`)
	require.NoError(t, err)
	assert.Equal(t, "name.givenName\nemails\nvalue\n", out)
}

func TestParseCommandErrors(t *testing.T) {
	_, stderr, err := execute(t, "parse", "--version", "v1", `emails[type eq "work"]`)
	require.Error(t, err)
	assert.Contains(t, stderr, "[Syntax Error] line 0, col 6: Error: Expected SP, got '['")

	_, _, err = execute(t, "parse", "--mode", "patch", "title pr")
	require.Error(t, err)

	_, _, err = execute(t, "parse")
	require.Error(t, err)

	_, _, err = execute(t, "parse", "--max-depth", "1", "((title pr))")
	require.Error(t, err)
}
