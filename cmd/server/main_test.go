package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "migrate", "createsuperuser", "grant-moderator", "delete-user"}, names)
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))

	cmd, _, err := root.Find([]string{"createsuperuser"})
	require.NoError(t, err)
	assert.NotNil(t, cmd.Flags().Lookup("email"))
	assert.NotNil(t, cmd.Flags().Lookup("password"))
}
