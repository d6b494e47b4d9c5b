// Package patch defines the structured patch document produced by the model
// and the parsing pipeline that recovers it from raw completion text.
//
// Models wrap their JSON in prose or code fences, so parsing starts with a
// lexical scan for the outermost balanced brace-delimited span (honoring
// nested braces and quoted strings) followed by a strict decode. Optional
// fields are defaulted exactly once, at parse time.
package patch
