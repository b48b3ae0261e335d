package main

import "github.com/pyrowatch/pyrowatch/cmd"

func main() {
	cmd.Execute()
}
