package main

import "github.com/andresmejia3/vidspot/cmd"

func main() {
	cmd.Execute()
}
