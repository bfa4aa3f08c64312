// main.go
package main

import "booking-engine/cmd"

func main() {
	cmd.Execute()
}
