package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"os/user"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jkroepke/pam-oauth2-device/internal/utils"
)

const (
	DefaultShell   = "/bin/bash"
	DefaultUserAdd = "/usr/sbin/useradd"
	DefaultUserMod = "/usr/sbin/usermod"
)

var (
	ErrRootUser        = errors.New("refusing to provision root")
	ErrInvalidUsername = errors.New("invalid username")
	ErrRelativeCommand = errors.New("command must be an absolute path")
)

// usernamePattern follows the default NAME_REGEX of useradd.
var usernamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_-]{0,31}$`)

// Runner executes a system command.
type Runner func(ctx context.Context, name string, args ...string) error

// Provisioner creates local accounts for users that authenticated successfully.
type Provisioner struct {
	logger      *slog.Logger
	lookupUser  func(name string) (*user.User, error)
	lookupGroup func(name string) (*user.Group, error)
	run         Runner
	group       string
	shell       string
	userAdd     string
	userMod     string
}

type Option func(*Provisioner)

// WithRunner replaces the command execution.
func WithRunner(run Runner) Option {
	return func(p *Provisioner) {
		p.run = run
	}
}

// WithLookup replaces the user and group database lookups.
func WithLookup(lookupUser func(string) (*user.User, error), lookupGroup func(string) (*user.Group, error)) Option {
	return func(p *Provisioner) {
		p.lookupUser = lookupUser
		p.lookupGroup = lookupGroup
	}
}

// WithCommands sets the useradd and usermod binaries. Empty values keep the defaults.
// pam_exec runs without PATH, so both must be absolute paths.
func WithCommands(userAdd, userMod string) Option {
	return func(p *Provisioner) {
		if userAdd != "" {
			p.userAdd = userAdd
		}

		if userMod != "" {
			p.userMod = userMod
		}
	}
}

func New(logger *slog.Logger, group, shell string, opts ...Option) *Provisioner {
	if shell == "" {
		shell = DefaultShell
	}

	provisioner := &Provisioner{
		logger:      logger,
		group:       group,
		shell:       shell,
		lookupUser:  user.Lookup,
		lookupGroup: utils.LookupGroup,
		run:         runCommand,
		userAdd:     DefaultUserAdd,
		userMod:     DefaultUserMod,
	}

	for _, opt := range opts {
		opt(provisioner)
	}

	return provisioner
}

// Provision creates the local account username unless it already exists and
// adds it to the configured group.
func (p *Provisioner) Provision(ctx context.Context, username string) error {
	if username == "root" {
		return ErrRootUser
	}

	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("%w: %q", ErrInvalidUsername, username)
	}

	for _, command := range []string{p.userAdd, p.userMod} {
		if !filepath.IsAbs(command) {
			return fmt.Errorf("%w: %q", ErrRelativeCommand, command)
		}
	}

	logger := p.logger.With(slog.String("username", username))

	_, err := p.lookupUser(username)
	if err == nil {
		logger.DebugContext(ctx, "local user already exists")

		return nil
	}

	var unknownUserErr user.UnknownUserError
	if !errors.As(err, &unknownUserErr) {
		return fmt.Errorf("error lookup user %s: %w", username, err)
	}

	var group *user.Group

	if p.group != "" {
		if group, err = p.lookupGroup(p.group); err != nil {
			return fmt.Errorf("group %s: %w", p.group, err)
		}
	}

	if err = p.run(ctx, p.userAdd, "-m", "-s", p.shell, username); err != nil {
		return fmt.Errorf("unable to create user %s: %w", username, err)
	}

	logger.InfoContext(ctx, "local user created", slog.String("shell", p.shell))

	if group == nil {
		return nil
	}

	if err = p.run(ctx, p.userMod, "-aG", group.Name, username); err != nil {
		return fmt.Errorf("unable to add user %s to group %s: %w", username, group.Name, err)
	}

	logger.InfoContext(ctx, "local user added to group",
		slog.String("group", group.Name),
		slog.String("gid", group.Gid),
	)

	return nil
}

func runCommand(ctx context.Context, name string, args ...string) error {
	output, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}

	return nil
}
