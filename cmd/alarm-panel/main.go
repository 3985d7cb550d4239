package main

import "github.com/oshokin/vessel-alarm/cmd/alarm-panel/cmd"

func main() {
	cmd.Execute()
}
