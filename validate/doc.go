// Package validate holds the pure checks shared by both reset flows.
//
// Nothing here performs I/O or keeps state. [ServerMessage] is the one place
// where a server response (or its absence) becomes a user-facing message.
package validate
