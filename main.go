package main

import "github.com/ValentinKolb/mctl/cmd"

func main() {
	cmd.Execute()
}
