package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DATABASE_URL", "sqlite://"+filepath.Join(t.TempDir(), "cli.db"))
	t.Setenv("LOG_LEVEL", "error")
	ctx := context.Background()

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(ctx, []string{"-u", "alice", "-p", "s3cret"}, &stdout, &stderr))
	assert.Equal(t, "alice created\n", stdout.String())

	stdout.Reset()
	require.NoError(t, run(ctx, []string{"--username", "bob", "--password", "pw"}, &stdout, &stderr))
	assert.Equal(t, "bob created\n", stdout.String())

	stdout.Reset()
	err := run(ctx, []string{"-u", "alice", "-p", "other"}, &stdout, &stderr)
	require.Error(t, err)
	assert.Equal(t, "User already exists", err.Error())
	assert.Empty(t, stdout.String())
}

func TestRun_MissingFlags(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-u", "alice"}, &stdout, &stderr)
	assert.Error(t, err)
	assert.Contains(t, stderr.String(), "username")
}
