package main

import "trip-tales-client/cmd"

func main() {
	cmd.Run()
}
