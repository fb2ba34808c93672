package main

import "brightctl/cmd"

func main() {
	cmd.Execute()
}
