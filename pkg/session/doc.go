/*
Package session serializes transitions of funnel sessions.

A Manager wraps a ports.StateStore. Within a process, session IDs hash onto a fixed
set of mutexes; across replicas, an optional ports.SessionLocker is taken as well.
Update loads, transitions and saves a session as one step.
*/
package session
