// Package form implements the controller that binds a model in global state
// to declarative validators. On mount and on every props change it asks the
// engine whether validity moved and dispatches the result; on submit it
// either calls the submit callback directly or dispatches a
// validate-and-branch intent; on reset it dispatches a reset.
//
// The controller never writes state itself. Everything it learns is read
// through a bridge.Bridge and everything it wants changed is sent back as a
// bridge.Intent.
package form
