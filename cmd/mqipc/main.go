package main

import "github.com/srediag/plugin-mq/cmd"

func main() {
	cmd.Execute()
}
