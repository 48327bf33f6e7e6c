// Package ordering sorts heterogeneous records for display.
//
// Keys are extracted once per record and compared with a tolerant rule set:
// missing values first, numeric comparison whenever either side looks like a
// number ("$52.7K", "11,327", 42), and case-insensitive text otherwise. Sorting
// is always stable and never mutates the input slice.
//
//	rows := ordering.SortBy(tokens, ordering.ParseKey[Token]("tokenInfo.holders"), ordering.Descending)
package ordering
