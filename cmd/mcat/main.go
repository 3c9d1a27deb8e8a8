package main

import "github.com/michael-eddy/mcat/cmd/mcat/cmd"

func main() {
	cmd.Execute()
}
