package main

import (
	"github.com/robotalks/usbser/pkg/cli/sh"
	"github.com/robotalks/usbser/pkg/session"
)

func init() {
	session.SetupFlags()
}

func main() {
	sh.Main()
}
