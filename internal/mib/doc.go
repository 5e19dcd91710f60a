// Package mib provides the data model shared by every other package of the agent.
//
// This package contains type definitions and pure helpers only. It imports
// nothing internal, so catalog, store, agent and monitor can all depend on it
// without cycles.
//
// Key design constraints:
//   - Values are a closed variant: Text or Integer, nothing else
//   - OIDs compare component-wise; a strict prefix sorts first
//   - Text is measured and stored code point by code point, as given
//     (invalid UTF-8 bytes are dropped)
//   - Error kinds are a closed enumeration, never raw protocol status numbers
package mib
