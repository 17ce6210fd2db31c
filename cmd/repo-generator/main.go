package main

import "github.com/oshokin/addon-repository/cmd/repo-generator/cmd"

func main() {
	cmd.Execute()
}
