package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/lib/pq"

	"discovery/internal/policy"
	"discovery/pkg/platform/sentinel"
)

//go:embed schema.sql
var schemaSQL string

// Tables carries every table the Postgres source reads, for truncation in tests.
var Tables = []string{
	"policy_locations",
	"policy_recap_customer_codes",
	"policy_m2_customer_codes",
	"policy_onsite_edd_criteria",
}

const (
	eddFieldStatuses         = "statuses"
	eddFieldCatalogItemTypes = "catalog_item_types"
	eddFieldHoldingLocations = "holding_locations"
	eddFieldAccessMessages   = "access_messages"
)

// PostgresSource reads a document from the policy_* tables.
type PostgresSource struct {
	db *sql.DB
}

func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) Name() string { return "postgres" }

// Migrate creates the policy tables when missing.
func (s *PostgresSource) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate policy schema: %w", err)
	}
	return nil
}

func (s *PostgresSource) Load(ctx context.Context) (policy.Document, error) {
	doc := policy.Document{
		Locations:          map[string]policy.LocationEntry{},
		RecapCustomerCodes: map[string]policy.RecapCustomerCodeEntry{},
		M2CustomerCodes:    map[string]policy.M2CustomerCodeEntry{},
	}
	if err := s.loadLocations(ctx, doc.Locations); err != nil {
		return policy.Document{}, err
	}
	if err := s.loadRecap(ctx, doc.RecapCustomerCodes); err != nil {
		return policy.Document{}, err
	}
	if err := s.loadM2(ctx, doc.M2CustomerCodes); err != nil {
		return policy.Document{}, err
	}
	criteria, err := s.loadOnsiteEdd(ctx)
	if err != nil {
		return policy.Document{}, err
	}
	doc.OnsiteEddCriteria = criteria
	if len(doc.Locations) == 0 {
		return policy.Document{}, fmt.Errorf("policy_locations is empty: %w", sentinel.ErrNotFound)
	}
	return doc, nil
}

func (s *PostgresSource) loadLocations(ctx context.Context, into map[string]policy.LocationEntry) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, label, requestable, delivery_location_codes, delivery_location_labels,
		       delivery_location_types, collection_access_type, deliverable_to_resolution
		FROM policy_locations`)
	if err != nil {
		return fmt.Errorf("query locations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			code   string
			e      policy.LocationEntry
			codes  []string
			labels []string
		)
		if err := rows.Scan(&code, &e.Label, &e.Requestable, pq.Array(&codes), pq.Array(&labels),
			pq.Array(&e.DeliveryLocationTypes), &e.CollectionAccessType, &e.DeliverableToResolution); err != nil {
			return fmt.Errorf("scan location: %w", err)
		}
		e.DeliveryLocations = zipRefs(codes, labels)
		into[code] = e
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate locations: %w", err)
	}
	return nil
}

func (s *PostgresSource) loadRecap(ctx context.Context, into map[string]policy.RecapCustomerCodeEntry) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, label, edd_requestable, delivery_location_codes, delivery_location_labels
		FROM policy_recap_customer_codes`)
	if err != nil {
		return fmt.Errorf("query recap customer codes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			code          string
			e             policy.RecapCustomerCodeEntry
			codes, labels []string
		)
		if err := rows.Scan(&code, &e.Label, &e.EddRequestable, pq.Array(&codes), pq.Array(&labels)); err != nil {
			return fmt.Errorf("scan recap customer code: %w", err)
		}
		e.DeliveryLocations = zipRefs(codes, labels)
		into[code] = e
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate recap customer codes: %w", err)
	}
	return nil
}

func (s *PostgresSource) loadM2(ctx context.Context, into map[string]policy.M2CustomerCodeEntry) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, requestable, delivery_location_codes, delivery_location_labels
		FROM policy_m2_customer_codes`)
	if err != nil {
		return fmt.Errorf("query m2 customer codes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			code          string
			e             policy.M2CustomerCodeEntry
			codes, labels []string
		)
		if err := rows.Scan(&code, &e.Requestable, pq.Array(&codes), pq.Array(&labels)); err != nil {
			return fmt.Errorf("scan m2 customer code: %w", err)
		}
		e.DeliveryLocations = zipRefs(codes, labels)
		into[code] = e
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate m2 customer codes: %w", err)
	}
	return nil
}

// loadOnsiteEdd returns nil when the table is empty so defaults apply.
func (s *PostgresSource) loadOnsiteEdd(ctx context.Context) (*policy.OnsiteEddCriteria, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT field, vals FROM policy_onsite_edd_criteria`)
	if err != nil {
		return nil, fmt.Errorf("query onsite edd criteria: %w", err)
	}
	defer rows.Close()

	var (
		c     policy.OnsiteEddCriteria
		found bool
	)
	for rows.Next() {
		var (
			field string
			vals  []string
		)
		if err := rows.Scan(&field, pq.Array(&vals)); err != nil {
			return nil, fmt.Errorf("scan onsite edd criteria: %w", err)
		}
		found = true
		switch field {
		case eddFieldStatuses:
			c.Statuses = vals
		case eddFieldCatalogItemTypes:
			c.CatalogItemTypes = vals
		case eddFieldHoldingLocations:
			c.HoldingLocations = vals
		case eddFieldAccessMessages:
			c.AccessMessages = vals
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate onsite edd criteria: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &c, nil
}

// Publish replaces all policy rows with doc in one transaction.
func (s *PostgresSource) Publish(ctx context.Context, doc policy.Document) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin policy publish: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range Tables {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for code, e := range doc.Locations {
		codes, labels := unzipRefs(e.DeliveryLocations)
		_, err = tx.ExecContext(ctx, `
			INSERT INTO policy_locations (code, label, requestable, delivery_location_codes,
				delivery_location_labels, delivery_location_types, collection_access_type, deliverable_to_resolution)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			code, e.Label, e.Requestable, pq.Array(codes), pq.Array(labels),
			pq.Array(nonNil(e.DeliveryLocationTypes)), e.CollectionAccessType, e.DeliverableToResolution)
		if err != nil {
			return fmt.Errorf("insert location %s: %w", code, err)
		}
	}
	for code, e := range doc.RecapCustomerCodes {
		codes, labels := unzipRefs(e.DeliveryLocations)
		_, err = tx.ExecContext(ctx, `
			INSERT INTO policy_recap_customer_codes (code, label, edd_requestable, delivery_location_codes, delivery_location_labels)
			VALUES ($1, $2, $3, $4, $5)`,
			code, e.Label, e.EddRequestable, pq.Array(codes), pq.Array(labels))
		if err != nil {
			return fmt.Errorf("insert recap customer code %s: %w", code, err)
		}
	}
	for code, e := range doc.M2CustomerCodes {
		codes, labels := unzipRefs(e.DeliveryLocations)
		_, err = tx.ExecContext(ctx, `
			INSERT INTO policy_m2_customer_codes (code, requestable, delivery_location_codes, delivery_location_labels)
			VALUES ($1, $2, $3, $4)`,
			code, e.Requestable, pq.Array(codes), pq.Array(labels))
		if err != nil {
			return fmt.Errorf("insert m2 customer code %s: %w", code, err)
		}
	}
	if c := doc.OnsiteEddCriteria; c != nil {
		fields := map[string][]string{
			eddFieldStatuses:         c.Statuses,
			eddFieldCatalogItemTypes: c.CatalogItemTypes,
			eddFieldHoldingLocations: c.HoldingLocations,
			eddFieldAccessMessages:   c.AccessMessages,
		}
		for field, vals := range fields {
			if _, err = tx.ExecContext(ctx, `INSERT INTO policy_onsite_edd_criteria (field, vals) VALUES ($1, $2)`,
				field, pq.Array(nonNil(vals))); err != nil {
				return fmt.Errorf("insert onsite edd criteria %s: %w", field, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit policy publish: %w", err)
	}
	return nil
}

// zipRefs pairs parallel code/label arrays. Missing labels are left empty.
func zipRefs(codes, labels []string) []policy.LocationRef {
	if len(codes) == 0 {
		return nil
	}
	refs := make([]policy.LocationRef, len(codes))
	for i, code := range codes {
		refs[i].Code = code
		if i < len(labels) {
			refs[i].Label = labels[i]
		}
	}
	return refs
}

func unzipRefs(refs []policy.LocationRef) (codes, labels []string) {
	codes = make([]string, len(refs))
	labels = make([]string, len(refs))
	for i, r := range refs {
		codes[i] = r.Code
		labels[i] = r.Label
	}
	return codes, labels
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
