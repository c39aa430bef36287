package main

import "github.com/meinhoongagan/campus-booking/cmd"

func main() {
	cmd.Execute()
}
