package main

import "github.com/do4u-project/do4u/cmd/cli"

func main() {
	cli.Execute()
}
