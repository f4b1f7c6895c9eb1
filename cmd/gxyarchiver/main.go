// Copyright © 2018 One Concern

package main

import (
	"github.com/oneconcern/gxyarchiver/cmd/gxyarchiver/cmd"
)

func main() {
	cmd.Execute()
}
