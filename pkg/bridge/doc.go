// Package bridge connects a form controller to an external state container.
// Reads go through injected collaborators (path resolver, value getter,
// metadata getter, field accessor) and are re-resolved on every pass; writes
// are expressed as intents handed to a Dispatcher, which owns all mutation.
package bridge
