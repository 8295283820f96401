package cli

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	calls    []string
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Login(context.Context) error {
	f.calls = append(f.calls, "login")
	f.loggedIn = true
	return nil
}
func (f *fakeExec) Resume(context.Context) error {
	f.calls = append(f.calls, "resume")
	return nil
}
func (f *fakeExec) Games(context.Context) error {
	f.calls = append(f.calls, "games")
	return nil
}
func (f *fakeExec) Logout(context.Context) error {
	f.calls = append(f.calls, "logout")
	f.loggedIn = false
	return nil
}
func (f *fakeExec) Download(context.Context) error {
	f.calls = append(f.calls, "download")
	return nil
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	input := strings.Join([]string{
		"help",
		"",
		"login",
		"help",
		"games",
		"l",
		"download",
		"resume",
		"foobar",
		"logout",
		"exit",
		"games",
	}, "\n")

	exec := &fakeExec{}
	var out bytes.Buffer
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewReader(strings.NewReader(input)), &out)

	assert.Equal(t, []string{"login", "games", "games", "download", "resume", "logout"}, exec.calls)
	assert.Contains(t, out.String(), "Available commands: login, resume, download, exit")
	assert.Contains(t, out.String(), "Available commands: games, logout, download, exit")
	assert.Contains(t, out.String(), "Unknown command: foobar")
	assert.Contains(t, out.String(), "Bye!")
}

func TestRunREPL_StopsOnEOF(t *testing.T) {
	exec := &fakeExec{}
	var out bytes.Buffer

	runREPL(context.Background(), exec, func() string { return "(Alice) " }, bufio.NewReader(strings.NewReader("games")), &out)

	assert.Equal(t, []string{"games"}, exec.calls)
	assert.True(t, strings.HasPrefix(out.String(), "steamhub (Alice) > "))
}
