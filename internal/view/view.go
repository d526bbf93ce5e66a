// Package view renders the read-only web directory.
package view

//go:generate templ generate

// TableID is the element the refresh stream patches.
const TableID = "birthday-table"

// DatastarScript is the datastar bundle the pages load. Its major version
// has to track github.com/starfederation/datastar-go.
const DatastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"

// Row is one line of the directory table.
type Row struct {
	Name     string
	Date     string
	Complete bool
}
