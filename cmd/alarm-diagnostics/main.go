package main

import "github.com/oshokin/vessel-alarm/cmd/alarm-diagnostics/cmd"

func main() {
	cmd.Execute()
}
