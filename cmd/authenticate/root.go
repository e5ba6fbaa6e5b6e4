package authenticate

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"syscall"

	"github.com/jkroepke/pam-oauth2-device/internal/authenticator"
	"github.com/jkroepke/pam-oauth2-device/internal/config"
	"github.com/jkroepke/pam-oauth2-device/internal/prompt"
	"github.com/jkroepke/pam-oauth2-device/internal/utils"
	"github.com/jkroepke/pam-oauth2-device/internal/version"
)

const (
	// EnvVarUser holds the local account name set by pam_exec.
	EnvVarUser = "PAM_USER"
	// EnvVarType holds the PAM management group set by pam_exec.
	EnvVarType = "PAM_TYPE"
)

// Execute runs one login attempt for the account in PAM_USER and returns the exit code for pam_exec.
// The verification instructions are written to stdout, logs to logWriter unless log.path is set.
func Execute(args []string, stdin io.Reader, stdout, logWriter io.Writer) int {
	conf, err := configure(args, logWriter)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return authenticator.Success.ExitCode()
		}

		if errors.Is(err, config.ErrVersion) {
			printVersion(logWriter)

			return authenticator.Success.ExitCode()
		}

		_, _ = fmt.Fprintln(logWriter, err.Error())

		return authenticator.SystemError.ExitCode()
	}

	if conf.Log.Path != "" {
		logFile, err := os.OpenFile(conf.Log.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			_, _ = fmt.Fprintln(logWriter, fmt.Errorf("error opening log file: %w", err).Error())

			return authenticator.SystemError.ExitCode()
		}

		defer logFile.Close()

		logWriter = logFile
	}

	logger, err := configureLogger(conf, logWriter)
	if err != nil {
		_, _ = fmt.Fprintln(logWriter, fmt.Errorf("error configure logging: %w", err).Error())

		return authenticator.SystemError.ExitCode()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if pamType := os.Getenv(EnvVarType); pamType != "" && pamType != "auth" {
		logger.LogAttrs(ctx, slog.LevelDebug, "nothing to do", slog.String("pam_type", pamType))

		return authenticator.Success.ExitCode()
	}

	username := os.Getenv(EnvVarUser)
	if username == "" {
		logger.LogAttrs(ctx, slog.LevelError, "environment variable "+EnvVarUser+" is empty")

		return authenticator.SystemError.ExitCode()
	}

	httpClient, err := utils.NewHTTPClient(conf.HTTP.Timeout, conf.HTTP.CAFile)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, utils.ErrorChain("error creating http client", err))

		return authenticator.SystemError.ExitCode()
	}

	auth, err := authenticator.New(conf, logger, httpClient, prompt.NewTerminal(stdin, stdout))
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, err.Error())

		return authenticator.SystemError.ExitCode()
	}

	return auth.Authenticate(ctx, username).ExitCode()
}

// configure parses the command line arguments and loads the configuration.
func configure(args []string, logWriter io.Writer) (config.Config, error) {
	conf, err := config.New(args, logWriter)
	if err != nil {
		return config.Config{}, fmt.Errorf("configuration parse error: %w", err)
	}

	if err = config.Validate(conf); err != nil {
		return config.Config{}, fmt.Errorf("configuration validation error: %w", err)
	}

	return conf, nil
}

func configureLogger(conf config.Config, writer io.Writer) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{
		AddSource: false,
		Level:     conf.Log.Level,
	}

	switch conf.Log.Format {
	case config.LogFormatJSON:
		return slog.New(slog.NewJSONHandler(writer, opts)), nil
	case config.LogFormatConsole:
		return slog.New(slog.NewTextHandler(writer, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format: %s", conf.Log.Format)
	}
}

func printVersion(writer io.Writer) {
	//goland:noinspection GoBoolExpressions
	if version.Version == "dev" {
		if buildInfo, ok := debug.ReadBuildInfo(); ok {
			_, _ = fmt.Fprintf(writer, "version: %s\ngo: %s\n", buildInfo.Main.Version, buildInfo.GoVersion)

			return
		}
	}

	_, _ = fmt.Fprintf(writer, "version: %s\ncommit: %s\ndate: %s\ngo: %s\n", version.Version, version.Commit, version.Date, runtime.Version())
}
