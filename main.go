package main

import "github.com/theirongolddev/rurhook/cmd"

func main() {
	cmd.Execute()
}
