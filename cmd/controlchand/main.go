// Command controlchand runs the control-channel event-delivery daemon.
package main

import "github.com/tlyu/ctrlevent/internal/daemon"

func main() {
	daemon.Execute()
}
