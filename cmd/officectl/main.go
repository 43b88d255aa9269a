package main

import "github.com/spec-kit/recruitment-office/cmd/officectl/cmd"

func main() {
	cmd.Execute()
}
