package main

import "github.com/Mohsinsiddi/gacharoom/cmd"

func main() {
	cmd.Execute()
}
