package authenticator

// Outcome is the result of one authentication attempt as reported to the host.
type Outcome int

const (
	Success Outcome = iota
	AuthError
	TimedOut
	SystemError
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case AuthError:
		return "auth_error"
	case TimedOut:
		return "timed_out"
	case SystemError:
		return "system_error"
	default:
		return "unknown"
	}
}

// ExitCode maps the outcome to the exit status of the pam_exec binary.
func (o Outcome) ExitCode() int {
	switch o {
	case Success:
		return 0
	case AuthError:
		return 1
	case TimedOut:
		return 2
	default:
		return 3
	}
}
