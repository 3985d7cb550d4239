package main

import "github.com/oshokin/vessel-alarm/cmd/cmdb-sync/cmd"

func main() {
	cmd.Execute()
}
