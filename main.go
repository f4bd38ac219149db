package main

import "SyncMusic/cmd"

func main() {
	cmd.Execute()
}
