package main

import "github.com/notargets/godwr/cmd"

func main() {
	cmd.Execute()
}
