// Package model defines the domain types shared across the search core:
// drawing components, drawings, and the structured filters applied to them.
//
// Component records are owned by the ingestion pipeline; this service only
// reads them. See pkg/savedsearch for the one durable type this service owns.
package model
