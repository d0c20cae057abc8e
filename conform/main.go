package main

import "conform/conform/cmd"

func main() {
	cmd.Execute()
}
