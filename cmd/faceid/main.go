package main

import "faceid/internal/cli"

func main() {
	cli.Execute()
}
