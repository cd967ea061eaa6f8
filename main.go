package main

import "github.com/roadhelper/user-service/cmd"

func main() {
	cmd.Execute()
}
