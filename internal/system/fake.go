package system

import (
	"context"
	"errors"
	"strings"
)

// FakeRunner is a Runner for tests: it records every command instead of
// executing it and answers LookPath from a configured set of binaries.
type FakeRunner struct {
	// Binaries maps names (or absolute paths) that LookPath resolves.
	Binaries map[string]string

	// Fail maps a command prefix ("usermod -aG ...") to an error
	// returned instead of recording success.
	Fail map[string]error

	// Commands is the log of executed command lines.
	Commands []string
}

// ErrNotFound is returned by FakeRunner.LookPath for unknown binaries.
var ErrNotFound = errors.New("executable file not found")

func NewFakeRunner(binaries ...string) *FakeRunner {
	f := &FakeRunner{Binaries: make(map[string]string)}
	for _, b := range binaries {
		f.Binaries[b] = "/usr/bin/" + b
	}
	return f
}

func (f *FakeRunner) Run(_ context.Context, name string, args ...string) error {
	cmdline := strings.Join(append([]string{name}, args...), " ")
	for prefix, err := range f.Fail {
		if strings.HasPrefix(cmdline, prefix) {
			return err
		}
	}
	f.Commands = append(f.Commands, cmdline)
	return nil
}

func (f *FakeRunner) LookPath(name string) (string, error) {
	if path, ok := f.Binaries[name]; ok {
		return path, nil
	}
	return "", ErrNotFound
}

// Ran reports whether a recorded command line starts with prefix.
func (f *FakeRunner) Ran(prefix string) bool {
	for _, c := range f.Commands {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

// FakeUserDB is a UserDB for tests, answering from in-memory maps.
type FakeUserDB struct {
	// Users maps username to identity.
	Users map[string]User

	// Groups is the set of existing groups.
	Groups map[string]bool

	// Members maps "user:group" to membership.
	Members map[string]bool
}

func NewFakeUserDB() *FakeUserDB {
	return &FakeUserDB{
		Users:   make(map[string]User),
		Groups:  make(map[string]bool),
		Members: make(map[string]bool),
	}
}

// ErrUnknownUser is returned by FakeUserDB.LookupUser for unknown names.
var ErrUnknownUser = errors.New("unknown user")

func (f *FakeUserDB) AddUser(u User) {
	f.Users[u.Name] = u
}

func (f *FakeUserDB) LookupUser(name string) (User, error) {
	u, ok := f.Users[name]
	if !ok {
		return User{}, ErrUnknownUser
	}
	return u, nil
}

func (f *FakeUserDB) LookupUserID(uid int) (User, error) {
	for _, u := range f.Users {
		if u.UID == uid {
			return u, nil
		}
	}
	return User{}, ErrUnknownUser
}

func (f *FakeUserDB) GroupExists(name string) (bool, error) {
	return f.Groups[name], nil
}

func (f *FakeUserDB) UserInGroup(username, group string) (bool, error) {
	return f.Members[username+":"+group], nil
}
