// Package jsonval models a decoded JSON document as a closed tagged variant.
//
// The extraction engine pattern-matches on the six JSON kinds rather than
// type-switching over interface{} values, and object members keep the order
// they appeared in on the wire, which keeps extraction output deterministic
// for a fixed document.
package jsonval
