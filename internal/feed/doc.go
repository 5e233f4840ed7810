// Package feed decodes the student portal feed.
//
// The feed arrives as a JSON array of [key, value] pairs. Normalizer folds
// the pairs into a Map, and Decoder turns the Map into a domain.Record,
// applying the feed's ad-hoc encodings on the way: integers standing in for
// booleans, strings standing in for floats, fixed-length arrays standing in
// for records. Every failure is a *DecodeError carrying the Path of the
// offending value, so a bad feed can be diagnosed without re-reading it.
package feed
