package main

import "github.com/akashsiripuram/Nexus/cmd"

func main() {
	cmd.Execute()
}
