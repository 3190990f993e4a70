// Package model holds the value types shared by the packing, pricing and
// optimizer packages: order items, catalog boxes and their price tables.
package model
