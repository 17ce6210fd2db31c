package main

import "github.com/oshokin/addon-repository/cmd/addon-register/cmd"

func main() {
	cmd.Execute()
}
