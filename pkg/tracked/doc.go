// Package tracked provides collections whose reads and writes are visible to
// the reactive engine.
//
// Each collection owns one tag for the collection as a whole and one tag per
// key that has been read or written:
//
//   - Looking up a key consumes that key's tag, creating it on first lookup
//     even when the key is absent, so a reader that saw "missing" is
//     invalidated when the key appears.
//   - Len and Keys consume only the collection tag.
//   - Values and All consume the collection tag and every key's tag.
//   - Adding or removing a key dirties the collection tag and the key's tag.
//   - Changing the value of an existing key dirties only that key's tag.
//     Writes of an equal value dirty nothing.
//
// Collections are not safe for concurrent use, like the engine itself.
//
//	users := tracked.NewMap[string, User](tc, tracked.WithLabel("users"))
//	count := reactive.NewMemo(tc, func() int { return users.Len() })
//
//	users.Set("alice", alice) // count is now stale
package tracked
