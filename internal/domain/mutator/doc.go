// Package mutator changes the shape of the ranked list: it inserts levels at a
// rank, moves them to a new rank and places staged submissions.
//
// Rank is row position. Every change is a fixed sequence of independent store
// calls, written in this order:
//
//	insert/place: main -> extreme -> enjoyment -> rating -> waiting delete -> archive
//	move:         main -> enjoyment -> rating -> extreme (delete, then reinsert)
//
// There is no lock, queue or transaction around a sequence. Two moderators
// mutating the list at the same time can interleave their row shifts and leave
// the tables out of order; this is an accepted hazard of the remote store and
// must be reconciled by hand. A failure part way through is reported as a
// *PartialMutationError naming the tables already written; nothing is rolled
// back or retried.
package mutator
