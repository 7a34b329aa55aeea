package main

import (
	"beatforge/cmd"
)

func main() {
	cmd.Execute()
}
