// Package outputlog records several byte streams of one process into a single
// append-only log and reads them back.
//
// shellmux uses it to capture the raw stdout and stderr lines of a command
// before they are cleaned, so a run can be replayed later with different
// cleaning options.
//
// # Format
//
// Every chunk is written as
//
//	stream timestamp length: content\n
//
//   - stream: matches [a-zA-Z0-9_./-]{1,64}, for example stdout or stderr.
//   - timestamp: UTC time in RFC 3339 with nanoseconds, trailing zeros
//     trimmed: 2025-01-07T12:34:56.789Z
//   - length: number of content bytes in decimal.
//   - content: exactly length bytes. It may contain newlines or any other
//     byte value, including the line's own trailing newline.
//   - \n: a separator that is always written after content.
//
// # Examples
//
// A line with its trailing newline ends in two newlines:
//
//	stdout 2025-01-07T12:34:56.789Z 12: Hello world\n\n
//
// A partial line without one (for example a prompt) ends in one:
//
//	stdout 2025-01-07T12:34:56.789Z 7: prompt>\n
//
// Because content is length-prefixed, a chunk whose content looks like a
// header is never mistaken for one.
package outputlog
