// Package car decodes content-addressed archives (CAR v1) from a byte stream.
//
// An archive is a LEB128 length-prefixed header followed by frames. Each
// frame is a LEB128 length, a 36-byte content identifier and the payload:
//
//	archive := varint(len(header)) header frame*
//	frame   := varint(len(cid)+len(payload)) cid payload
//
// Decoding is streaming: at most one frame body is held in memory at a time
// and blocks are delivered in archive order, either to a callback (Decode)
// or through an iterator (Blocks). Identifiers are returned verbatim and are
// never checked against the payload.
//
// Failures are reported as *Error values carrying a stable Kind and RuleID.
package car
