package main

import "github.com/icco/possumbox/cmd"

func main() {
	cmd.Execute()
}
