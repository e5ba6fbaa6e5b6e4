package provision_test

import (
	"context"
	"errors"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/jkroepke/pam-oauth2-device/internal/provision"
	"github.com/jkroepke/pam-oauth2-device/internal/utils/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvision(t *testing.T) {
	t.Parallel()

	errLookup := errors.New("nss unavailable")

	for _, tc := range []struct {
		name      string
		username  string
		group     string
		userErr   error
		groupErr  error
		runErr    error
		err       error
		errString string
		commands  []string
	}{
		{
			name:     "existing user",
			username: "alice",
			group:    "users",
		},
		{
			name:     "new user",
			username: "alice",
			userErr:  user.UnknownUserError("alice"),
			commands: []string{"/usr/sbin/useradd -m -s /bin/bash alice"},
		},
		{
			name:     "new user with group",
			username: "alice",
			group:    "wheel",
			userErr:  user.UnknownUserError("alice"),
			commands: []string{"/usr/sbin/useradd -m -s /bin/bash alice", "/usr/sbin/usermod -aG wheel alice"},
		},
		{
			name:     "new user with numeric group",
			username: "alice",
			group:    "10",
			userErr:  user.UnknownUserError("alice"),
			commands: []string{"/usr/sbin/useradd -m -s /bin/bash alice", "/usr/sbin/usermod -aG wheel alice"},
		},
		{
			name:      "unknown group",
			username:  "alice",
			group:     "wheel",
			userErr:   user.UnknownUserError("alice"),
			groupErr:  errors.New("unknown group"),
			errString: "group wheel: unknown group",
		},
		{
			name:      "useradd fails",
			username:  "alice",
			userErr:   user.UnknownUserError("alice"),
			runErr:    errors.New("exit status 9"),
			errString: "unable to create user alice",
			commands:  []string{"/usr/sbin/useradd -m -s /bin/bash alice"},
		},
		{
			name:     "lookup fails",
			username: "alice",
			userErr:  errLookup,
			err:      errLookup,
		},
		{
			name:     "root",
			username: "root",
			err:      provision.ErrRootUser,
		},
		{
			name:     "invalid username",
			username: "../etc",
			err:      provision.ErrInvalidUsername,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var commands []string

			provisioner := provision.New(testutils.NewTestLogger().Logger, tc.group, "",
				provision.WithLookup(
					func(name string) (*user.User, error) {
						if tc.userErr != nil {
							return nil, tc.userErr
						}

						return &user.User{Username: name}, nil
					},
					func(string) (*user.Group, error) {
						if tc.groupErr != nil {
							return nil, tc.groupErr
						}

						return &user.Group{Name: "wheel", Gid: "10"}, nil
					},
				),
				provision.WithRunner(func(_ context.Context, name string, args ...string) error {
					commands = append(commands, name+" "+strings.Join(args, " "))

					return tc.runErr
				}),
			)

			err := provisioner.Provision(t.Context(), tc.username)

			switch {
			case tc.err != nil:
				require.ErrorIs(t, err, tc.err)
			case tc.errString != "":
				require.ErrorContains(t, err, tc.errString)
			default:
				require.NoError(t, err)
			}

			assert.Equal(t, tc.commands, commands)
		})
	}
}

func TestProvisionRelativeCommand(t *testing.T) {
	t.Parallel()

	provisioner := provision.New(testutils.NewTestLogger().Logger, "", "",
		provision.WithCommands("useradd", ""),
		provision.WithRunner(func(context.Context, string, ...string) error {
			t.Fatal("command must not run")

			return nil
		}),
	)

	require.ErrorIs(t, provisioner.Provision(t.Context(), "alice"), provision.ErrRelativeCommand)
}

// pam_exec starts the binary with the PAM environment only, so PATH is usually unset.
func TestProvisionWithoutPath(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("requires /bin/sh")
	}

	t.Setenv("PATH", "")

	dir := t.TempDir()
	calls := filepath.Join(dir, "calls")

	script := "#!/bin/sh\necho \"$0 $*\" >> " + calls + "\n"
	userAdd := filepath.Join(dir, "useradd")
	userMod := filepath.Join(dir, "usermod")

	for _, file := range []string{userAdd, userMod} {
		require.NoError(t, os.WriteFile(file, []byte(script), 0o700)) //nolint:gosec
	}

	provisioner := provision.New(testutils.NewTestLogger().Logger, "wheel", "/bin/sh",
		provision.WithCommands(userAdd, userMod),
		provision.WithLookup(
			func(name string) (*user.User, error) {
				return nil, user.UnknownUserError(name)
			},
			func(string) (*user.Group, error) {
				return &user.Group{Name: "wheel", Gid: "10"}, nil
			},
		),
	)

	require.NoError(t, provisioner.Provision(t.Context(), "alice"))

	output, err := os.ReadFile(calls)
	require.NoError(t, err)
	assert.Equal(t, userAdd+" -m -s /bin/sh alice\n"+userMod+" -aG wheel alice\n", string(output))
}
