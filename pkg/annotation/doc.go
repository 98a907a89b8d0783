// Package annotation parses the source directives that exclude code
// from coverage analysis.
//
// There are two kinds of ignore.
//  1. Ignore the whole go file.
//     `//+covergate:ignore:file`
//  2. Ignore a go code block.
//     `//+covergate:ignore:block`
//
// A block runs from the directive line until the next blank line, which
// matches how closely related statements are usually grouped.
package annotation
