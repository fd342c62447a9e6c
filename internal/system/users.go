package system

import (
	"context"
	"fmt"
	"os/user"
	"strconv"
)

// User is the resolved identity of a local account.
type User struct {
	Name    string
	UID     int
	GID     int
	HomeDir string
}

// UserDB answers user and group queries against the host account database.
type UserDB interface {
	// LookupUser resolves a local account by name.
	LookupUser(name string) (User, error)

	// LookupUserID resolves a local account by numeric uid.
	LookupUserID(uid int) (User, error)

	// GroupExists reports whether a group with the given name exists.
	GroupExists(name string) (bool, error)

	// UserInGroup reports whether the user is a member of the group,
	// either as primary group or supplementary member.
	UserInGroup(username, group string) (bool, error)
}

// OSUserDB is the UserDB used in production, backed by os/user.
type OSUserDB struct{}

func (OSUserDB) LookupUser(name string) (User, error) {
	u, err := user.Lookup(name)
	if err != nil {
		return User{}, err
	}

	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return User{}, fmt.Errorf("non-numeric uid %q for user %s", u.Uid, name)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return User{}, fmt.Errorf("non-numeric gid %q for user %s", u.Gid, name)
	}

	return User{Name: u.Username, UID: uid, GID: gid, HomeDir: u.HomeDir}, nil
}

func (OSUserDB) LookupUserID(uid int) (User, error) {
	u, err := user.LookupId(strconv.Itoa(uid))
	if err != nil {
		return User{}, err
	}

	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return User{}, fmt.Errorf("non-numeric gid %q for uid %d", u.Gid, uid)
	}

	return User{Name: u.Username, UID: uid, GID: gid, HomeDir: u.HomeDir}, nil
}

func (OSUserDB) GroupExists(name string) (bool, error) {
	_, err := user.LookupGroup(name)
	if err != nil {
		if _, ok := err.(user.UnknownGroupError); ok {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (OSUserDB) UserInGroup(username, group string) (bool, error) {
	u, err := user.Lookup(username)
	if err != nil {
		return false, err
	}
	g, err := user.LookupGroup(group)
	if err != nil {
		if _, ok := err.(user.UnknownGroupError); ok {
			return false, nil
		}
		return false, err
	}

	if u.Gid == g.Gid {
		return true, nil
	}

	gids, err := u.GroupIds()
	if err != nil {
		return false, err
	}
	for _, gid := range gids {
		if gid == g.Gid {
			return true, nil
		}
	}
	return false, nil
}

// EnsureGroupMembership makes sure group exists and username is a member.
// Both steps are skipped when already satisfied, so repeated calls are
// no-ops.
func EnsureGroupMembership(ctx context.Context, runner Runner, udb UserDB, username, group string) error {
	exists, err := udb.GroupExists(group)
	if err != nil {
		return fmt.Errorf("look up group %s: %w", group, err)
	}
	if !exists {
		if err := runner.Run(ctx, "groupadd", "--system", group); err != nil {
			return fmt.Errorf("create group %s: %w", group, err)
		}
	}

	member, err := udb.UserInGroup(username, group)
	if err != nil {
		return fmt.Errorf("check membership of %s in %s: %w", username, group, err)
	}
	if member {
		return nil
	}

	if err := runner.Run(ctx, "usermod", "-aG", group, username); err != nil {
		return fmt.Errorf("add %s to group %s: %w", username, group, err)
	}
	return nil
}
