package main

import (
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMigrator struct {
	upErr   error
	steps   int
	forced  int
	version uint
}

func (f *fakeMigrator) Up() error {
	return f.upErr
}

func (f *fakeMigrator) Steps(n int) error {
	f.steps = n
	return nil
}

func (f *fakeMigrator) Force(version int) error {
	f.forced = version
	return nil
}

func (f *fakeMigrator) Version() (uint, bool, error) {
	return f.version, false, nil
}

func TestRunDefaultsToUp(t *testing.T) {
	require.NoError(t, run(&fakeMigrator{upErr: migrate.ErrNoChange}, nil))
}

func TestRunDown(t *testing.T) {
	m := &fakeMigrator{}
	require.NoError(t, run(m, []string{"down"}))
	assert.Equal(t, -1, m.steps)

	require.NoError(t, run(m, []string{"down", "2"}))
	assert.Equal(t, -2, m.steps)

	assert.Error(t, run(m, []string{"down", "zero"}))
}

func TestRunForce(t *testing.T) {
	m := &fakeMigrator{}
	require.NoError(t, run(m, []string{"force", "1"}))
	assert.Equal(t, 1, m.forced)
	assert.Error(t, run(m, []string{"force"}))
}

func TestRunUnknownCommand(t *testing.T) {
	assert.Error(t, run(&fakeMigrator{}, []string{"sideways"}))
}
