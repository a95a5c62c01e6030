// Package util holds small helpers shared by the chatstream binaries:
// human-readable size parsing, secret masking for logs and text cleanup for
// terminal input.
package util
