package main

import "minapt/internal/cli"

func main() {
	cli.Execute()
}
