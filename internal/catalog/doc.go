// Package catalog owns the ending catalog: an in-memory list of entries
// persisted as a single JSON document, plus the image files that back them.
//
// Every mutating operation runs under one store-wide mutex for its full
// duration, including any image download it triggers, so mutations are
// strictly serialized. Persistence is explicit: mutations mark the store
// dirty and Save writes the document only when something changed, renaming
// the previous file to a .bak sibling first.
package catalog
