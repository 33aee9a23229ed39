// Package state holds the client's observable view state: the displayed
// contact list and the single open dialog.
//
// ContactList resolves races between writers with tickets. A ticket is taken
// when a query is issued; Apply only accepts results whose ticket is newer
// than the last applied one, so a slow stale result never overwrites a
// fresher list.
package state
