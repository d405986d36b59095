package main

import (
	"canbridge/cmd"
)

func main() {
	cmd.Execute()
}
