package main

import (
	"os"

	"github.com/jkroepke/pam-oauth2-device/cmd/authenticate"
)

func main() {
	os.Exit(authenticate.Execute(os.Args, os.Stdin, os.Stdout, os.Stderr))
}
