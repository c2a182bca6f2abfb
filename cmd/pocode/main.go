package main

import "github.com/MeKo-Tech/pocode/cmd/pocode/cmd"

func main() {
	cmd.Execute()
}
