// Package ring provides the fixed-capacity byte ring the supervisor keeps for
// every connection of a pipeline.
//
// The ring never hands out a region that crosses the physical end of its
// storage. Callers ask for a window, perform exactly one non-blocking read or
// write against it, and commit the number of bytes actually transferred:
//
//	p, err := buf.Writable()
//	n, err := unix.Read(fd, p)
//	buf.CommitWrite(n)
//
// A partial transfer simply leaves a smaller window for the next call, and a
// wrapped region is reached by the following call once the cursor has moved
// back to the start of the storage.
//
// Both cursors sit on the same index when the ring is empty and when it is
// full; the full flag is the only thing that tells the two apart.
package ring
