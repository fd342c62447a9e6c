package system

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureGroupMembershipCreatesGroupAndAddsUser(t *testing.T) {
	runner := NewFakeRunner()
	udb := NewFakeUserDB()
	udb.AddUser(User{Name: "alice", UID: 1000, GID: 1000, HomeDir: "/home/alice"})

	require.NoError(t, EnsureGroupMembership(context.Background(), runner, udb, "alice", "davfs2"))

	assert.Equal(t, []string{
		"groupadd --system davfs2",
		"usermod -aG davfs2 alice",
	}, runner.Commands)
}

func TestEnsureGroupMembershipSkipsExistingGroup(t *testing.T) {
	runner := NewFakeRunner()
	udb := NewFakeUserDB()
	udb.Groups["davfs2"] = true

	require.NoError(t, EnsureGroupMembership(context.Background(), runner, udb, "alice", "davfs2"))

	assert.Equal(t, []string{"usermod -aG davfs2 alice"}, runner.Commands)
}

func TestEnsureGroupMembershipNoOpWhenMember(t *testing.T) {
	runner := NewFakeRunner()
	udb := NewFakeUserDB()
	udb.Groups["davfs2"] = true
	udb.Members["alice:davfs2"] = true

	require.NoError(t, EnsureGroupMembership(context.Background(), runner, udb, "alice", "davfs2"))

	assert.Empty(t, runner.Commands)
}

func TestEnsureGroupMembershipPropagatesRunnerFailure(t *testing.T) {
	runner := NewFakeRunner()
	runner.Fail = map[string]error{"groupadd": ErrNotFound}

	err := EnsureGroupMembership(context.Background(), runner, NewFakeUserDB(), "alice", "davfs2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create group davfs2")
}
