package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Dimensions resolves natural keys to ids for the low-cardinality lookup
// tables. Each worker owns its own instance; the cache is populated only
// after a successful upsert, so concurrent workers converge on the ids the
// database assigned.
type Dimensions struct {
	cache *ttlcache.Cache[string, int64]
}

const dimensionCacheTTL = time.Hour

// NewDimensions creates a per-worker dimension resolver.
func NewDimensions() *Dimensions {
	return &Dimensions{
		cache: ttlcache.New(
			ttlcache.WithTTL[string, int64](dimensionCacheTTL),
		),
	}
}

func (d *Dimensions) cached(key string) (int64, bool) {
	if item := d.cache.Get(key); item != nil {
		return item.Value(), true
	}
	return 0, false
}

// EnsureCaseType upserts a case_type by name and returns its id.
func (d *Dimensions) EnsureCaseType(ctx context.Context, q Querier, name string) (int64, error) {
	return d.ensureNamed(ctx, q, "case_type", name)
}

// EnsureStageType upserts a stage_type by name and returns its id.
func (d *Dimensions) EnsureStageType(ctx context.Context, q Querier, name string) (int64, error) {
	return d.ensureNamed(ctx, q, "stage_type", name)
}

// EnsureDocumentType upserts a document_type by name and returns its id.
func (d *Dimensions) EnsureDocumentType(ctx context.Context, q Querier, name string) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("document type name is required")
	}
	key := "document_type\x00" + strings.ToLower(name)
	if id, ok := d.cached(key); ok {
		return id, nil
	}
	var id int64
	err := q.QueryRow(ctx, `
		INSERT INTO document_type (name, role, has_decision, processing_strategy)
		VALUES ($1, 'court', TRUE, 'case_outcome')
		ON CONFLICT (lower(name)) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ensure document_type %q: %w", name, err)
	}
	d.cache.Set(key, id, ttlcache.DefaultTTL)
	return id, nil
}

// EnsureCourt upserts a court by (name, district) and returns its id.
func (d *Dimensions) EnsureCourt(ctx context.Context, q Querier, name, level, district, county string) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("court name is required")
	}
	key := "court\x00" + strings.ToLower(name) + "\x00" + district
	if id, ok := d.cached(key); ok {
		return id, nil
	}
	var id int64
	err := q.QueryRow(ctx, `
		INSERT INTO court (name, level, district, county)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''))
		ON CONFLICT (lower(name), COALESCE(district, '')) DO UPDATE SET
			level = EXCLUDED.level,
			county = COALESCE(court.county, EXCLUDED.county)
		RETURNING id`, name, level, district, county).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ensure court %q: %w", name, err)
	}
	d.cache.Set(key, id, ttlcache.DefaultTTL)
	return id, nil
}

// EnsureStatute upserts a statute by (jurisdiction, code) and returns its
// id.
func (d *Dimensions) EnsureStatute(ctx context.Context, q Querier, jurisdiction, code string) (int64, error) {
	if code == "" {
		return 0, fmt.Errorf("statute code is required")
	}
	key := "statute\x00" + jurisdiction + "\x00" + strings.ToLower(code)
	if id, ok := d.cached(key); ok {
		return id, nil
	}
	var id int64
	err := q.QueryRow(ctx, `
		INSERT INTO statute (jurisdiction, code)
		VALUES ($1, $2)
		ON CONFLICT (jurisdiction, lower(code)) DO UPDATE SET code = EXCLUDED.code
		RETURNING id`, jurisdiction, code).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ensure statute %q: %w", code, err)
	}
	d.cache.Set(key, id, ttlcache.DefaultTTL)
	return id, nil
}

// EnsureJudge upserts a judge by name and returns its id. Judges are
// global: the same name from two cases resolves to one row.
func (d *Dimensions) EnsureJudge(ctx context.Context, q Querier, name string) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("judge name is required")
	}
	key := "judge\x00" + strings.ToLower(name)
	if id, ok := d.cached(key); ok {
		return id, nil
	}
	var id int64
	err := q.QueryRow(ctx, `
		INSERT INTO judge (name)
		VALUES ($1)
		ON CONFLICT (lower(name)) DO UPDATE SET name = judge.name
		RETURNING id`, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ensure judge %q: %w", name, err)
	}
	d.cache.Set(key, id, ttlcache.DefaultTTL)
	return id, nil
}

// EnsureTaxonomyPath walks case_type -> category -> subcategory, creating
// missing nodes, and returns the id of the deepest node present. Empty
// trailing levels are allowed; caseType is required.
func (d *Dimensions) EnsureTaxonomyPath(ctx context.Context, q Querier, caseType, category, subcategory string) (int64, error) {
	if caseType == "" {
		return 0, fmt.Errorf("taxonomy case type is required")
	}

	id, err := d.ensureTaxonomyNode(ctx, q, nil, caseType, "case_type")
	if err != nil {
		return 0, err
	}
	if category == "" {
		return id, nil
	}

	id, err = d.ensureTaxonomyNode(ctx, q, &id, category, "category")
	if err != nil {
		return 0, err
	}
	if subcategory == "" {
		return id, nil
	}

	return d.ensureTaxonomyNode(ctx, q, &id, subcategory, "subcategory")
}

func (d *Dimensions) ensureTaxonomyNode(ctx context.Context, q Querier, parentID *int64, name, level string) (int64, error) {
	parentKey := int64(-1)
	if parentID != nil {
		parentKey = *parentID
	}
	key := fmt.Sprintf("taxonomy\x00%d\x00%s\x00%s", parentKey, strings.ToLower(name), level)
	if id, ok := d.cached(key); ok {
		return id, nil
	}
	var id int64
	err := q.QueryRow(ctx, `
		INSERT INTO legal_taxonomy (parent_id, name, level)
		VALUES ($1, $2, $3)
		ON CONFLICT (COALESCE(parent_id, -1), lower(name), level) DO UPDATE SET name = legal_taxonomy.name
		RETURNING id`, parentID, name, level).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ensure taxonomy node %q (%s): %w", name, level, err)
	}
	d.cache.Set(key, id, ttlcache.DefaultTTL)
	return id, nil
}

// ensureNamed handles the plain name-keyed dimensions.
func (d *Dimensions) ensureNamed(ctx context.Context, q Querier, table, name string) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("%s name is required", table)
	}
	key := table + "\x00" + strings.ToLower(name)
	if id, ok := d.cached(key); ok {
		return id, nil
	}
	// The table name comes from the fixed call sites above, never from
	// input.
	sql := fmt.Sprintf(`
		INSERT INTO %s (name)
		VALUES ($1)
		ON CONFLICT (lower(name)) DO UPDATE SET name = %s.name
		RETURNING id`, table, table)
	var id int64
	if err := q.QueryRow(ctx, sql, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("ensure %s %q: %w", table, name, err)
	}
	d.cache.Set(key, id, ttlcache.DefaultTTL)
	return id, nil
}
