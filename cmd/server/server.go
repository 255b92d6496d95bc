package main

import "github.com/mikufans/bvc-server/pkg/server/cmd"

func main() {
	cmd.Execute()
}
