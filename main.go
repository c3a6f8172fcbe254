package main

import "github.com/aovlift/aovlift/cmd"

func main() {
	cmd.Execute()
}
