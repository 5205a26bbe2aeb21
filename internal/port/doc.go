// Package port observes the state of host TCP ports for the blogdev CLI.
//
// Two complementary probes are provided:
//
//   - Scanner answers "is this port free?" by asking the OS directly via
//     net.Listen, which needs no elevated permissions and no external tools.
//     It is used by the doctor command.
//   - Inspector answers "who holds this port?" by shelling out to the
//     platform's socket-inspection tool (lsof on Unix, netstat on Windows),
//     because discovering owning PIDs is not possible through the portable
//     net API. It backs the launcher's stale-listener eviction.
package port
