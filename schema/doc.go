// Package schema derives tool input schemas from Go types.
//
// Schemas are inferred with github.com/google/jsonschema-go and resolved once,
// so every tools/call validates its arguments without re-parsing the schema.
//
//	type DaysInput struct {
//	    StartDate string `json:"start_date" jsonschema:"Start date in YYYY-MM-DD format"`
//	    EndDate   string `json:"end_date" jsonschema:"End date in YYYY-MM-DD format"`
//	}
//
//	in, err := schema.For[DaysInput]()
//	err = in.Validate(json.RawMessage(`{"start_date":"2024-01-01"}`)) // end_date missing
//
// Fields without omitempty are required. The jsonschema tag is the property
// description.
package schema
