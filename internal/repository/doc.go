// Package repository implements the aggregate stores on SurrealDB.
//
// Each club, event and user is one record keyed type::thing(table, id). The
// aggregate itself is a JSON body; the fields that lists filter on and the
// unique keys (email, name_key) are stored beside it and indexed by the
// schema in schema/*.surql, applied by Bootstrap.
//
// # Writes
//
// Every update is a compare-and-swap on the version field, queued into a
// batch transaction with a guard that THROWs when nothing matched:
//
//	LET $matched = (UPDATE type::thing('club', $uid) SET ... WHERE version = $version RETURN id);
//	IF array::len($matched) = 0 { THROW "version conflict" };
//
// A roster change and the user back-references it mirrors are queued in the
// same batch, so either all of them commit or the caller receives
// database.ErrVersionConflict and retries from a fresh read. Versions on the
// Go models are bumped only after the batch commits.
//
// # Example Usage
//
//	clubs := NewClubRepository(db)
//	club, err := clubs.GetByID(ctx, id)
//	if err != nil {
//	    return err
//	}
//	if club == nil {
//	    // not found
//	}
package repository
