// Package pipeline builds a chain of worker processes and supervises the
// byte stream flowing through it.
//
// Topology for N stages:
//
//	source -> W0 -> [ring 0] -> W1 -> [ring 1] -> ... -> W(N-1) -> [ring N-1] -> sink
//
// Every arrow out of a worker ends at the supervisor, which owns one ring
// buffer per stage. The supervisor is a single goroutine blocked in poll(2).
// It watches a stage's input while its ring has room and the stage's output
// while its ring holds data, so a slow consumer never stalls an unrelated
// producer.
//
// Descriptor Ownership:
//   - Every channel is created close-on-exec
//   - A worker receives exactly its two endpoints as descriptors 3 and 4
//   - The supervisor closes its copies of those endpoints right after spawn
//
// Shutdown Order:
//
// A stage retires once its input reached end of stream and its ring is empty.
// Retirement reaps the worker and closes the stage's output, which is the only
// way the next stage ever sees end of stream. Stages therefore retire strictly
// in chain order; anything else is a protocol violation.
//
// Example Usage:
//
//	p, err := pipeline.Build(pipeline.Options{Stages: 3, Source: src})
//	if err != nil {
//		return err
//	}
//	defer p.Close()
//	return p.Run()
package pipeline
