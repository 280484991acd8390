package main

import (
	malamute "github.com/malamuteradio/malamute/src"
)

func main() {
	malamute.MalamuteMain()
}
