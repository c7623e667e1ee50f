// Package validity defines the value types shared by the validation engine:
// the Result variant (a boolean or a set of named booleans), validators and
// the maps that bind them to field paths, and the Computed errors map a pass
// produces. Merge and Invert implement the precedence rules used both while
// recomputing errors and when building the submit-time error validators.
package validity
