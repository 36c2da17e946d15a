package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	pkgdb "github.com/isolele/isolele-backend/pkg/db"
	pkgerrors "github.com/isolele/isolele-backend/pkg/errors"
	"github.com/isolele/isolele-backend/pkg/pagination"
)

// likeEscaper makes search terms match literally under LIKE ... ESCAPE '\'.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Row is a persisted model addressable by uuid.
type Row interface {
	TableName() string
	PrimaryKey() uuid.UUID
}

// Filter narrows a List or Count. Column names must be whitelisted on the table.
type Filter struct {
	Equals        map[string]any
	Before        map[string]time.Time
	Search        string
	SearchColumns []string
	OrderBy       string
	Limit         int
	Offset        int
}

// TableOptions describes what callers may filter and sort on.
type TableOptions struct {
	Columns       []string
	SearchColumns []string
	DefaultOrder  string
	Preloads      []string
}

// Table is a generic store over one collection.
type Table[T Row] struct {
	db            *gorm.DB
	name          string
	columns       map[string]struct{}
	searchColumns []string
	defaultOrder  string
	preloads      []string
}

// NewTable builds a table store for T.
func NewTable[T Row](db *gorm.DB, opts TableOptions) *Table[T] {
	var zero T
	columns := map[string]struct{}{"id": {}}
	for _, c := range opts.Columns {
		columns[c] = struct{}{}
	}
	for _, c := range opts.SearchColumns {
		columns[c] = struct{}{}
	}
	return &Table[T]{
		db:            db,
		name:          zero.TableName(),
		columns:       columns,
		searchColumns: opts.SearchColumns,
		defaultOrder:  opts.DefaultOrder,
		preloads:      opts.Preloads,
	}
}

// DB returns the connection bound to ctx so cancellation reaches the driver.
func (t *Table[T]) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return t.db
	}
	return t.db.WithContext(ctx)
}

// Name returns the collection name.
func (t *Table[T]) Name() string {
	return t.name
}

func (t *Table[T]) List(ctx context.Context, f Filter) ([]T, error) {
	q, err := t.scoped(ctx, f)
	if err != nil {
		return nil, err
	}
	order := f.OrderBy
	if order == "" {
		order = t.defaultOrder
	}
	if order != "" {
		col, err := t.orderClause(order)
		if err != nil {
			return nil, err
		}
		q = q.Order(col)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	for _, p := range t.preloads {
		q = q.Preload(p)
	}

	var rows []T
	if err := q.Find(&rows).Error; err != nil {
		return nil, t.wrap(err, "list")
	}
	return rows, nil
}

func (t *Table[T]) Count(ctx context.Context, f Filter) (int64, error) {
	q, err := t.scoped(ctx, f)
	if err != nil {
		return 0, err
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, t.wrap(err, "count")
	}
	return total, nil
}

// Paginate counts the filtered rows and returns the requested page of them.
func (t *Table[T]) Paginate(ctx context.Context, f Filter, params pagination.Params) ([]T, pagination.Page, error) {
	params = params.Normalize()
	total, err := t.Count(ctx, f)
	if err != nil {
		return nil, pagination.Page{}, err
	}
	f.Limit = params.Limit
	f.Offset = params.Offset()
	rows, err := t.List(ctx, f)
	if err != nil {
		return nil, pagination.Page{}, err
	}
	return rows, params.Describe(total), nil
}

func (t *Table[T]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	q := t.DB(ctx)
	for _, p := range t.preloads {
		q = q.Preload(p)
	}
	var row T
	if err := q.Where("id = ?", id).First(&row).Error; err != nil {
		return nil, t.wrap(err, "get")
	}
	return &row, nil
}

// FindOne returns the first row matching every equality condition.
func (t *Table[T]) FindOne(ctx context.Context, equals map[string]any) (*T, error) {
	q, err := t.scoped(ctx, Filter{Equals: equals})
	if err != nil {
		return nil, err
	}
	for _, p := range t.preloads {
		q = q.Preload(p)
	}
	var row T
	if err := q.First(&row).Error; err != nil {
		return nil, t.wrap(err, "get")
	}
	return &row, nil
}

// Create inserts row and returns it as stored.
func (t *Table[T]) Create(ctx context.Context, row *T) (*T, error) {
	if row == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s row required", t.name))
	}
	if err := t.DB(ctx).Create(row).Error; err != nil {
		return nil, t.wrap(err, "create")
	}
	return t.Get(ctx, (*row).PrimaryKey())
}

// Update applies changes by column name and returns the row re-read from the store.
func (t *Table[T]) Update(ctx context.Context, id uuid.UUID, changes map[string]any) (*T, error) {
	if len(changes) == 0 {
		return t.Get(ctx, id)
	}
	for col := range changes {
		if err := t.checkColumn(col); err != nil {
			return nil, err
		}
	}
	res := t.DB(ctx).Model(new(T)).Where("id = ?", id).Updates(changes)
	if res.Error != nil {
		return nil, t.wrap(res.Error, "update")
	}
	if res.RowsAffected == 0 {
		return nil, t.notFound()
	}
	return t.Get(ctx, id)
}

// UpdateWhere applies changes only while the row still matches expect. It
// reports false with the current row when another writer got there first.
func (t *Table[T]) UpdateWhere(ctx context.Context, id uuid.UUID, expect, changes map[string]any) (*T, bool, error) {
	if len(changes) == 0 {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s changes required", t.name))
	}
	for col := range changes {
		if err := t.checkColumn(col); err != nil {
			return nil, false, err
		}
	}
	q, err := t.scoped(ctx, Filter{Equals: expect})
	if err != nil {
		return nil, false, err
	}
	res := q.Where("id = ?", id).Updates(changes)
	if res.Error != nil {
		return nil, false, t.wrap(res.Error, "update")
	}
	row, err := t.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return row, res.RowsAffected > 0, nil
}

func (t *Table[T]) Delete(ctx context.Context, id uuid.UUID) error {
	res := t.DB(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return t.wrap(res.Error, "delete")
	}
	if res.RowsAffected == 0 {
		return t.notFound()
	}
	return nil
}

func (t *Table[T]) scoped(ctx context.Context, f Filter) (*gorm.DB, error) {
	q := t.DB(ctx).Model(new(T))
	for col, value := range f.Equals {
		if err := t.checkColumn(col); err != nil {
			return nil, err
		}
		q = q.Where(clause.Eq{Column: clause.Column{Name: col}, Value: value})
	}
	for col, bound := range f.Before {
		if err := t.checkColumn(col); err != nil {
			return nil, err
		}
		q = q.Where(clause.Lt{Column: clause.Column{Name: col}, Value: bound})
	}

	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" {
		return q, nil
	}
	cols := f.SearchColumns
	if len(cols) == 0 {
		cols = t.searchColumns
	}
	if len(cols) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s does not support search", t.name))
	}
	pattern := "%" + likeEscaper.Replace(term) + "%"
	exprs := make([]clause.Expression, 0, len(cols))
	for _, col := range cols {
		if err := t.checkColumn(col); err != nil {
			return nil, err
		}
		exprs = append(exprs, clause.Expr{
			SQL:  `LOWER(?) LIKE ? ESCAPE '\'`,
			Vars: []any{clause.Column{Name: col}, pattern},
		})
	}
	return q.Where(clause.Or(exprs...)), nil
}

func (t *Table[T]) orderClause(raw string) (clause.OrderByColumn, error) {
	parts := strings.Fields(raw)
	if len(parts) == 0 || len(parts) > 2 {
		return clause.OrderByColumn{}, t.invalidOrder(raw)
	}
	desc := false
	if len(parts) == 2 {
		switch strings.ToLower(parts[1]) {
		case "asc":
		case "desc":
			desc = true
		default:
			return clause.OrderByColumn{}, t.invalidOrder(raw)
		}
	}
	if err := t.checkColumn(parts[0]); err != nil {
		return clause.OrderByColumn{}, err
	}
	return clause.OrderByColumn{Column: clause.Column{Name: parts[0]}, Desc: desc}, nil
}

func (t *Table[T]) checkColumn(col string) error {
	if _, ok := t.columns[col]; !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown %s column %q", t.name, col))
	}
	return nil
}

func (t *Table[T]) invalidOrder(raw string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order %q", raw))
}

func (t *Table[T]) notFound() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("%s row not found", t.name))
}

// wrap maps store failures onto API error codes. Nothing is swallowed.
func (t *Table[T]) wrap(err error, op string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return t.notFound()
	case pkgdb.IsUniqueViolation(err, ""):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, fmt.Sprintf("%s row already exists", t.name))
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("failed to %s %s", op, t.name))
	}
}
