// Package favorites keeps per user favorite exercise markers. A marker is
// just the pair (user, exercise); toggling flips its existence.
package favorites
