// Command msisim runs random memory traffic through a simulated two-level MSI
// cache hierarchy.
package main

import "github.com/sarchlab/msisim/msisim/cmd"

func main() {
	cmd.Execute()
}
