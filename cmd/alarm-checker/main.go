package main

import "github.com/oshokin/vessel-alarm/cmd/alarm-checker/cmd"

func main() {
	cmd.Execute()
}
