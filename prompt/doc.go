// Package prompt loads the instruction templates sent to the completion API
// and builds the data payload carried in the user message.
//
// Templates are plain text files resolved from the project's
// .patchflow/prompts/ or prompts/ directories, falling back to versions
// embedded in the binary. The system instruction fully specifies the JSON
// patch schema the model must produce.
package prompt
