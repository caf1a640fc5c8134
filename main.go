package main

import "github.com/frahmantamala/paynow/cmd"

func main() {
	cmd.Execute()
}
