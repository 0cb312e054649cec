// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package services contains the business logic for interacting with data
// sources. This file centralizes the BigQuery SQL used by the library
// service. Queries use fmt.Sprintf verbs as placeholders for values
// injected at runtime.
package services

const (
	// QryListLibraryEntries returns the newest library entries first.
	//
	// Placeholders:
	// - `%s`: The fully qualified name of the library table.
	// - `%d`: The maximum number of rows to return.
	QryListLibraryEntries = "SELECT * FROM `%s` ORDER BY create_date DESC LIMIT %d"

	// QryFindLibraryEntryById looks one entry up by its row key.
	//
	// Placeholders:
	// - `%s`: The fully qualified name of the library table.
	// - `%s`: The entry identifier.
	QryFindLibraryEntryById = "SELECT * FROM `%s` WHERE id = '%s'"

	// QryFindLibraryEntriesByRun returns every artifact a single
	// generation run produced, clips before voiceover.
	//
	// Placeholders:
	// - `%s`: The fully qualified name of the library table.
	// - `%s`: The run identifier.
	QryFindLibraryEntriesByRun = "SELECT * FROM `%s` WHERE run_id = '%s' ORDER BY kind, create_date"
)
