// Package queryir provides the request intermediate representation for
// catalogql: filter trees, sort trees and pagination requests.
//
// ARCHITECTURE:
//
//	[JSON / YAML request] → [queryir] → [querysql engine] → [backend query]
//
// queryir knows nothing about entity schemas. Field names are carried as
// written and are resolved against entity metadata by querysql, which
// rejects unknown names before touching a backend.
//
// SEALED INTERFACES:
//
// Filter and Pagination are sealed interfaces using the marker method
// pattern, so compilers can switch exhaustively:
//
//	switch f := filter.(type) {
//	case Leaf:
//	    // field with an ordered operator list
//	case Group:
//	    // and / or over children
//	case Relation:
//	    // nested filter across a relation
//	}
//
// ORDER:
//
// Every decoder preserves document key order. Multiple keys in one filter
// object become an And group in input order, and sort entries compile in
// the order written, so the same request always yields the same query.
package queryir
