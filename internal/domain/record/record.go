// Package record holds the registry record read model hydrated from the
// store by search queries.
package record

import "time"

// Record is an immutable registry entry.
type Record struct {
	id            int64
	recordType    string
	identifier    string
	name          string
	workflowState string
	createdAt     time.Time
	updatedAt     time.Time
	metadata      map[string]string
}

// Reconstruct creates a Record from stored values (storage hydration,
// no validation).
func Reconstruct(
	id int64, recordType, identifier, name, workflowState string,
	createdAt, updatedAt time.Time, metadata map[string]string,
) Record {
	return Record{
		id:            id,
		recordType:    recordType,
		identifier:    identifier,
		name:          name,
		workflowState: workflowState,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
		metadata:      metadata,
	}
}

// ID returns the record identifier.
func (r Record) ID() int64 { return r.id }

// Type returns the record type name.
func (r Record) Type() string { return r.recordType }

// Identifier returns the human-assigned identifier.
func (r Record) Identifier() string { return r.identifier }

// Name returns the record name.
func (r Record) Name() string { return r.name }

// WorkflowState returns the workflow state.
func (r Record) WorkflowState() string { return r.workflowState }

// CreatedAt returns the creation timestamp.
func (r Record) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the last-modification timestamp.
func (r Record) UpdatedAt() time.Time { return r.updatedAt }

// Metadata returns the schemaless key/value entries.
func (r Record) Metadata() map[string]string { return r.metadata }
