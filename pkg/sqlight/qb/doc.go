// Package qb builds sqlite statements for dynamic WHERE/ORDER/LIMIT style
// queries and bulk insert/update/delete statements.
//
// Builders return sqlight.Sql values so generated statements run through the
// same handle path as hand-written ones. Output is deterministic: condition
// and column order follows sorted key order.
package qb
