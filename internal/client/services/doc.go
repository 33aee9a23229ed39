// Package services contains the client's application services.
//
// ContactService coordinates contact mutations with the displayed list:
// every successful write is followed by a reload, and pushes from the store
// subscription keep the list current. AuthService validates credentials
// locally before delegating to an AuthProvider and tracks the sign-in state.
package services
