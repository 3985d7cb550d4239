package main

import "github.com/oshokin/vessel-alarm/cmd/compliance-report/cmd"

func main() {
	cmd.Execute()
}
