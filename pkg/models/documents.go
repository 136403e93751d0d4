package models

import "encoding/json"

// Documents is the raw document pair as published upstream. The bytes are kept
// verbatim so the agency order of the merged document survives caching.
type Documents struct {
	Merged   json.RawMessage `json:"merged"`
	Wikidata json.RawMessage `json:"wd"`
}

// Source sub-record names inside a merged document entry
const (
	SourceESV  = "esv"
	SourceSTKT = "stkt"
	SourceSCB  = "scb"
	SourceSFS  = "sfs"
	SourceAGV  = "agv"
	// SourceWikidata is the key the wikidata entry is exposed under during extraction
	SourceWikidata = "wd"
)

// Sources lists the sub-records of a merged document entry in extraction order.
var Sources = []string{SourceESV, SourceSTKT, SourceSCB, SourceSFS, SourceAGV}
