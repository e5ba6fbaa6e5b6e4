package utils

import (
	"errors"
	"strings"
)

// ErrorChain renders msg followed by every error in the chain of err, one
// "caused by" line per error. Joined errors are expanded depth-first.
func ErrorChain(msg string, err error) string {
	var sb strings.Builder

	sb.WriteString(msg)

	writeErrorChain(&sb, err)

	return sb.String()
}

func writeErrorChain(sb *strings.Builder, err error) {
	for err != nil {
		sb.WriteString("\n    caused by: ")
		sb.WriteString(err.Error())

		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				writeErrorChain(sb, e)
			}

			return
		}

		err = errors.Unwrap(err)
	}
}
