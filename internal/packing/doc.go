// Package packing places cuboid items inside a single box and scores how well
// a box suits a set of items.
//
// The packer is a greedy heuristic: candidate positions are scanned on a
// fixed 2 cm grid, so items smaller than the step may be mis-scored. It is
// not an exact 3D bin packing solver.
package packing
