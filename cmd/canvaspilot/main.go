package main

import "github.com/canvaspilot/canvaspilot/app/cmd"

func main() {
	cmd.Execute()
}
