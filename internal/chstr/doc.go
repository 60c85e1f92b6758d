// Package chstr implements attributed cell buffers for terminal rows.
//
// A Buffer is a growable, contiguous sequence of cells, each pairing one
// Unicode scalar value with a combined attribute integer. Buffers are the
// unit a script builds a screen row in before handing it to the terminal
// layer for display.
//
// The combined attribute packs a style field and a color-pair field; the
// buffer stores it verbatim and never interprets individual bits. The
// masks needed to split it for reporting belong to the terminal layer and
// are passed in by the caller (see SplitAttr).
//
// Offsets are 1-based throughout, matching the scripting surface that
// exposes these buffers. A Buffer is a plain value with exclusive
// ownership: it carries no locking, and Dup produces a fully independent
// copy rather than a shared view.
package chstr
