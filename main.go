package main

import "github.com/datawhisper/datawhisper-cli/cmd"

func main() {
	cmd.Execute()
}
