package main

import "github.com/LegacyCodeHQ/workgraph/cmd"

func main() {
	cmd.Execute()
}
