package main

import "fwatch/internal/cli"

func main() {
	cli.Execute()
}
