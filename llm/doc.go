// Package llm is a client for OpenAI-compatible chat completion APIs.
//
// The client sends a fixed two-message exchange - a system instruction that
// specifies the JSON patch schema, and a user message carrying the
// repository summary and change request as data - using a low-temperature,
// bounded-length decoding configuration. Calls are synchronous with an
// explicit timeout and exactly one attempt; any non-success response is an
// error.
package llm
