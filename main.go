package main

import "github.com/bert0h-dev/busmanage-api/cmd"

func main() {
	cmd.Execute()
}
