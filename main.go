package main

import "fitpair-backend/cmd"

func main() {
	cmd.Run()
}
