// Package worker implements one stage of the chain.
//
// The supervisor starts every stage by re-executing its own binary with the
// stage described in PIPECHAIN_STAGE_* variables. The input endpoint arrives
// on descriptor 3, the output endpoint on descriptor 4. The worker moves bytes
// between them with splice(2) until end of stream, then closes both and exits.
//
// State machine:
//
//	Relaying --transfer returned 0--> Draining --both closed--> Done
//	Relaying --transfer failed------> Failed
//
// Example Usage:
//
//	func main() {
//		if worker.IsWorker() {
//			os.Exit(worker.Main())
//		}
//		...
//	}
package worker
