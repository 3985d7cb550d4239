package main

import "github.com/oshokin/vessel-alarm/cmd/alarm-maintenance/cmd"

func main() {
	cmd.Execute()
}
