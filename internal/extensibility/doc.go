// Package extensibility binds the string references of authored charts to
// behavior: a Registry of named actions, guards and state handlers, built-in
// actions, CEL expression guards, a logging decorator and event sources for
// actors.
package extensibility
