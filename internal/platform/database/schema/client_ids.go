// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// ClientIDsTable represents the 'client_ids' allow-list table.
type ClientIDsTable struct {
	Table    string
	ID       string
	ClientID string
}

// ClientIDs is the schema definition for client_ids.
var ClientIDs = ClientIDsTable{
	Table:    "client_ids",
	ID:       "id",
	ClientID: "client_id",
}
