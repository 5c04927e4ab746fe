package main

import "github.com/KaramelBytes/errmech-cli/cmd"

func main() {
	cmd.Execute()
}
