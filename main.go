package main

import "example.com/backstage/services/commerce/cmd"

func main() {
	cmd.Execute()
}
