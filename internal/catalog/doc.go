// Package catalog supplies the box catalogs of the packaging suppliers. The
// default catalogs ship embedded as YAML; a replacement file can be loaded at
// startup and individual supplier catalogs replaced at runtime.
package catalog
