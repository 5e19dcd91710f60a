// Package catalog holds the ordered set of scalar object descriptors the
// agent serves.
//
// A Catalog is built once at startup from the persisted descriptor table
// (YAML, validated against an embedded CUE schema) and never mutated
// afterwards. Descriptors are sorted by OID at construction so exact and
// next lookups are plain binary searches.
//
// # Descriptor table format
//
//	manager:
//	  oid: [1, 3, 6, 1, 4, 1, 28308, 1, 1, 0]   # or "1.3.6.1.4.1.28308.1.1.0"
//	  type: DisplayString                       # or Integer32
//	  access: read-write                        # or read-only
//	  min: 1
//	  max: 64
//	  default: Admin                            # optional
package catalog
