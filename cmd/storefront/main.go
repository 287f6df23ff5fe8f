package main

import "github.com/devdazzlee/southen-sweet-sub000/internal/cli"

func main() {
	cli.Execute()
}
