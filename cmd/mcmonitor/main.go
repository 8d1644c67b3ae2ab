package main

import mctoolscmd "github.com/OwenCochell/mctools/cmd"

func main() {
	mctoolscmd.Main()
}
